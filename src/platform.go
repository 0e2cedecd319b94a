package acme

import "github.com/golang/geo/r3"

/*------------------------------------------------------------------
 *
 * Purpose:	Shared kinematic state for both CommsPlatform and
 *		DisruptorPlatform: position, velocity, acceleration,
 *		and the per-platform elapsed-time/step counters.
 *
 * Description:	Integrated under constant acceleration each step:
 *
 *			p' = p + v*dt + 1/2*a*dt^2
 *			v' = v + a*dt
 *			a' = a
 *
 *		This is the only physics the simulator models; there is
 *		no path loss, fading, or SNR (see spec Non-goals).
 *
 *---------------------------------------------------------------*/

// Kinematics is embedded by every platform in the simulation.
type Kinematics struct {
	ID  string
	Pos r3.Vector
	Vel r3.Vector
	Acc r3.Vector

	ElapsedTime  float64
	ElapsedSteps int
}

func newKinematics(id string, pos, vel, acc r3.Vector) Kinematics {
	return Kinematics{ID: id, Pos: pos, Vel: vel, Acc: acc}
}

func (k *Kinematics) step(deltaT float64) {
	half := 0.5 * deltaT * deltaT
	k.Pos = k.Pos.Add(k.Vel.Mul(deltaT)).Add(k.Acc.Mul(half))
	k.Vel = k.Vel.Add(k.Acc.Mul(deltaT))
	k.ElapsedTime += deltaT
	k.ElapsedSteps++
}
