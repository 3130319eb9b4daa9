// Package cam implements the pinhole camera model used across association,
// triangulation and fitting: JSON (de)serialization, ray casting, point
// projection and pairwise fundamental-matrix computation.
package cam

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
)

// Vec3 is a plain 3-vector; kept as a fixed-size array rather than la.Vector
// since every camera-level operation here is a small closed-form formula,
// not an iterative solve.
type Vec3 [3]float64

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Mat34 is a row-major 3x4 projection matrix.
type Mat34 [3][4]float64

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}
func (a Vec3) Dot(b Vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func (a Vec3) Norm() float64 { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Normalized() Vec3 {
	n := a.Norm()
	if n < 1e-12 {
		return a
	}
	return a.Scale(1 / n)
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i][k] * n[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func (m Mat3) Scale(s float64) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

func identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Skew returns the cross-product (skew-symmetric) matrix of v, such that
// Skew(v)*x == v.Cross(x).
func Skew(v Vec3) Mat3 {
	return Mat3{
		{0, -v[2], v[1]},
		{v[2], 0, -v[0]},
		{-v[1], v[0], 0},
	}
}

// Rodrigues converts an axis-angle rotation vector into a rotation matrix.
func Rodrigues(v Vec3) Mat3 {
	theta := v.Norm()
	if math.Abs(theta) < 1e-5 {
		return identity3()
	}
	c, s := math.Cos(theta), math.Sin(theta)
	r := v.Scale(1 / theta)
	rrt := Mat3{
		{r[0] * r[0], r[0] * r[1], r[0] * r[2]},
		{r[1] * r[0], r[1] * r[1], r[1] * r[2]},
		{r[2] * r[0], r[2] * r[1], r[2] * r[2]},
	}
	skew := Skew(r)
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			id := 0.0
			if i == j {
				id = 1
			}
			out[i][j] = c*id + (1-c)*rrt[i][j] + s*skew[i][j]
		}
	}
	return out
}

// invert3 returns the inverse of a 3x3 matrix via the cofactor formula.
func invert3(m Mat3) Mat3 {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math.Abs(det) < 1e-15 {
		chk.Panic("cam: cannot invert a singular 3x3 matrix")
	}
	invDet := 1 / det

	return Mat3{
		{(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet},
		{(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet},
		{(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet},
	}
}

// Camera holds the calibration of a single view: intrinsics K, extrinsics
// (R, T), and the derived quantities used by ray casting and projection.
type Camera struct {
	K Mat3
	R Mat3
	T Vec3

	// DistCoeff and RectifyAlpha are carried through from the JSON file
	// for completeness (see SPEC_FULL.md C11); lens-distortion rectification
	// itself is not performed here (image I/O is an external collaborator).
	DistCoeff    []float64
	RectifyAlpha float64

	// derived
	Ki    Mat3  // inverse of K
	Rt    Mat3  // transpose of R
	RtKi  Mat3  // Rt * Ki
	Pos   Vec3  // -Rt*T, the camera center in world coordinates
	Proj  Mat34 // K * [R|T]
}

// jsonCamera mirrors the on-disk camera JSON object (see SPEC_FULL.md §6):
// K is always 9 values; rotation is either a 3-value Rodrigues vector or a
// 9-value row-major matrix under "R", or a combined 12-value "RT".
type jsonCamera struct {
	K            []float64 `json:"K"`
	R            []float64 `json:"R,omitempty"`
	T            []float64 `json:"T,omitempty"`
	RT           []float64 `json:"RT,omitempty"`
	ImgSize      []float64 `json:"imgSize"`
	DistCoeff    []float64 `json:"distCoeff,omitempty"`
	RectifyAlpha float64   `json:"rectifyAlpha,omitempty"`
}

// Parse decodes one camera from its JSON representation.
func Parse(data []byte) (Camera, error) {
	var j jsonCamera
	if err := json.Unmarshal(data, &j); err != nil {
		return Camera{}, chk.Err("cam: invalid camera json: %v", err)
	}
	return fromJSON(j)
}

func fromJSON(j jsonCamera) (Camera, error) {
	var cam Camera
	if len(j.K) != 9 {
		return Camera{}, chk.Err("cam: K must have 9 values, got %d", len(j.K))
	}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			cam.K[i][k] = j.K[i*3+k]
		}
	}

	switch {
	case len(j.RT) == 12:
		for i := 0; i < 3; i++ {
			for k := 0; k < 3; k++ {
				cam.R[i][k] = j.RT[i*4+k]
			}
			cam.T[i] = j.RT[i*4+3]
		}
	case len(j.R) == 3:
		cam.R = Rodrigues(Vec3{j.R[0], j.R[1], j.R[2]})
		if len(j.T) == 3 {
			cam.T = Vec3{j.T[0], j.T[1], j.T[2]}
		}
	case len(j.R) == 9:
		for i := 0; i < 3; i++ {
			for k := 0; k < 3; k++ {
				cam.R[i][k] = j.R[i*3+k]
			}
		}
		if len(j.T) == 3 {
			cam.T = Vec3{j.T[0], j.T[1], j.T[2]}
		}
	default:
		return Camera{}, chk.Err("cam: unknown rotation format (R len=%d, RT len=%d)", len(j.R), len(j.RT))
	}

	cam.DistCoeff = append([]float64(nil), j.DistCoeff...)
	cam.RectifyAlpha = j.RectifyAlpha
	cam.deriveFrom(cam.K, cam.R, cam.T)
	return cam, nil
}

// deriveFrom computes the cached derived quantities (Ki, Rt, RtKi, Pos,
// Proj) from K, R, T, mirroring the original's CV2Eigen/Eigen2CV step.
func (c *Camera) deriveFrom(k, r Mat3, t Vec3) {
	c.K, c.R, c.T = k, r, t
	c.Ki = invert3(k)
	c.Rt = r.Transpose()
	c.RtKi = c.Rt.Mul(c.Ki)
	c.Pos = c.Rt.MulVec(t).Scale(-1)

	var rt Mat34
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt[i][j] = r[i][j]
		}
		rt[i][3] = t[i]
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for m := 0; m < 3; m++ {
				s += k[i][m] * rt[m][j]
			}
			c.Proj[i][j] = s
		}
	}
}

// SetExtrinsics recomputes derived quantities after R/T/K are changed
// directly (used by tests and by synthetic-camera construction).
func (c *Camera) SetExtrinsics(k, r Mat3, t Vec3) {
	c.deriveFrom(k, r, t)
}

// Ray returns the unit world-space ray direction through undistorted pixel
// (u,v), negated like CalcRay in the original: RtKi maps the pixel to the
// viewing direction into the scene, and the minus sign makes the returned
// direction point from the scene back toward the camera.
func (c Camera) Ray(u, v float64) Vec3 {
	return c.RtKi.MulVec(Vec3{u, v, 1}).Scale(-1).Normalized()
}

// Project maps a homogeneous world point [x,y,z,1] to homogeneous image
// coordinates [u*w, v*w, w]; callers divide by the third component
// themselves where needed (e.g. Gauss-Newton residual builders keep w to
// build the reprojection Jacobian).
func (c Camera) Project(p Vec3) Vec3 {
	return Vec3{
		c.Proj[0][0]*p[0] + c.Proj[0][1]*p[1] + c.Proj[0][2]*p[2] + c.Proj[0][3],
		c.Proj[1][0]*p[0] + c.Proj[1][1]*p[1] + c.Proj[1][2]*p[2] + c.Proj[1][3],
		c.Proj[2][0]*p[0] + c.Proj[2][1]*p[1] + c.Proj[2][2]*p[2] + c.Proj[2][3],
	}
}

// ReprojJacobi returns d(u,v)/d(worldXYZ) at the given world point, the 2x3
// Jacobian shared by triangulation and pose fitting's reprojection terms.
func (c Camera) ReprojJacobi(p Vec3) [2][3]float64 {
	proj := c.Project(p)
	z := proj[2]
	var duv [2][3]float64
	duv[0] = [3]float64{1 / z, 0, -proj[0] / (z * z)}
	duv[1] = [3]float64{0, 1 / z, -proj[1] / (z * z)}

	var p3 Mat3
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			p3[i][k] = c.Proj[i][k]
		}
	}
	var out [2][3]float64
	for i := 0; i < 2; i++ {
		for k := 0; k < 3; k++ {
			var s float64
			for m := 0; m < 3; m++ {
				s += duv[i][m] * p3[m][k]
			}
			out[i][k] = s
		}
	}
	return out
}

// Fundamental returns the fundamental matrix mapping a point in other's
// image to its corresponding epipolar line in this camera's image
// (x_this^T F x_other = 0).
func (c Camera) Fundamental(other Camera) Mat3 {
	relR := c.R.Mul(other.Rt)
	relT := c.T.Sub(relR.MulVec(other.T))
	return c.Ki.Transpose().Mul(Skew(relT)).Mul(relR).Mul(other.Ki)
}

// Set is an ordered collection of named cameras, as stored in the camera
// JSON file (an object keyed by camera name).
type Set struct {
	Names   []string
	Cameras map[string]Camera
}

// ParseSet decodes a full camera file: a JSON object mapping camera name to
// camera definition. Names are kept in ascending sorted order so that every
// downstream per-view loop iterates views in a stable, reproducible order
// (the original relies on std::map<std::string,Camera>'s sorted-key
// iteration for exactly this reason).
func ParseSet(data []byte) (Set, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Set{}, chk.Err("cam: invalid camera set json: %v", err)
	}
	set := Set{Cameras: make(map[string]Camera, len(raw))}
	for name, msg := range raw {
		cam, err := Parse(msg)
		if err != nil {
			return Set{}, chk.Err("cam: camera %q: %v", name, err)
		}
		set.Cameras[name] = cam
		set.Names = append(set.Names, name)
	}
	sort.Strings(set.Names)
	return set, nil
}

// Ordered returns the cameras in Names order.
func (s Set) Ordered() []Camera {
	out := make([]Camera, len(s.Names))
	for i, name := range s.Names {
		out[i] = s.Cameras[name]
	}
	return out
}
