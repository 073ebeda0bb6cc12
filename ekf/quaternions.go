package ekf

import "math"

// ToQuaternion calculates the 0,1,2,3 components of the quaternion rotating
// the body frame into the NED earth frame, for the 3-2-1 Euler angles
// roll, pitch, yaw (radians).
func ToQuaternion(roll, pitch, yaw float64) (float64, float64, float64, float64) {
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)

	q0 := cr*cp*cy + sr*sp*sy
	q1 := sr*cp*cy - cr*sp*sy
	q2 := cr*sp*cy + sr*cp*sy
	q3 := cr*cp*sy - sr*sp*cy
	return q0, q1, q2, q3
}

// FromQuaternion calculates the 3-2-1 Euler angles roll, pitch, yaw
// corresponding to the quaternion. Yaw is returned in [0, 2*Pi).
func FromQuaternion(q0, q1, q2, q3 float64) (float64, float64, float64) {
	roll := math.Atan2(2*(q0*q1+q2*q3), q0*q0-q1*q1-q2*q2+q3*q3)
	sp := 2 * (q0*q2 - q3*q1) / (q0*q0 + q1*q1 + q2*q2 + q3*q3)
	pitch := math.Asin(math.Max(-1, math.Min(1, sp)))
	yaw := math.Atan2(2*(q0*q3+q1*q2), q0*q0+q1*q1-q2*q2-q3*q3)
	if yaw < -1e-9 {
		yaw += 2 * Pi
	}
	return roll, pitch, yaw
}
