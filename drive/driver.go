// Package drive implements the skeleton forward-kinematics driver
// (component C6): shape-blended rest joints, per-node rigid warps, chained
// parent-to-child warps and the resulting final joint positions, plus
// loading the per-skeleton-type model directory and the skeleton-state
// text file format.
package drive

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/assoc4d/cam"
	"github.com/cpmech/assoc4d/skel"
)

// Param is the pose/shape state of one tracked skeleton: translation (3),
// per-joint axis-angle pose (3 per joint) and shape coefficients.
type Param struct {
	Type  skel.Type
	Trans cam.Vec3
	Pose  []cam.Vec3 // len == jointSize
	Shape []float64  // len == shapeSize
}

// NewParam returns a zeroed parameter for the given topology.
func NewParam(t skel.Type) Param {
	def := skel.GetDef(t)
	return Param{
		Type:  t,
		Pose:  make([]cam.Vec3, def.JointSize),
		Shape: make([]float64, def.ShapeSize),
	}
}

// TransPose returns the flattened [trans; pose] vector used as the unknown
// vector by the pose solver's normal equations; the returned slice aliases
// no storage (writes must go through ApplyTransPoseDelta).
func (p Param) TransPose() []float64 {
	out := make([]float64, 3+3*len(p.Pose))
	out[0], out[1], out[2] = p.Trans[0], p.Trans[1], p.Trans[2]
	for j, pj := range p.Pose {
		out[3+3*j], out[3+3*j+1], out[3+3*j+2] = pj[0], pj[1], pj[2]
	}
	return out
}

// ApplyTransPoseDelta adds delta (sized 3+3*jCut) into the translation and
// the first jCut pose joints, matching param.GetTransPose().head(3+3*jCut)
// += delta in the original solver.
func (p *Param) ApplyTransPoseDelta(delta []float64, jCut int) {
	p.Trans[0] += delta[0]
	p.Trans[1] += delta[1]
	p.Trans[2] += delta[2]
	for j := 0; j < jCut; j++ {
		p.Pose[j][0] += delta[3+3*j]
		p.Pose[j][1] += delta[3+3*j+1]
		p.Pose[j][2] += delta[3+3*j+2]
	}
}

// ApplyShapeDelta adds delta into the shape vector.
func (p *Param) ApplyShapeDelta(delta []float64) {
	for i := range p.Shape {
		p.Shape[i] += delta[i]
	}
}

// Model holds the fixed per-topology rest pose (m_joints) and shape blend
// basis (m_jShapeBlend) loaded from the skeleton-model directory.
type Model struct {
	Type       skel.Type
	Joints     []cam.Vec3 // rest joint positions, len == jointSize
	ShapeBlend [][]float64 // len == 3*jointSize, each row len == shapeSize
}

// CalcJBlend returns the shape-blended rest joints: joints + reshape(blend*shape).
func (m Model) CalcJBlend(shape []float64) []cam.Vec3 {
	out := make([]cam.Vec3, len(m.Joints))
	for j := range m.Joints {
		var off cam.Vec3
		for axis := 0; axis < 3; axis++ {
			row := m.ShapeBlend[3*j+axis]
			var s float64
			for k, sv := range shape {
				s += row[k] * sv
			}
			off[axis] = s
		}
		out[j] = m.Joints[j].Add(off)
	}
	return out
}

// NodeWarp is one joint's rigid transform relative to its parent (or
// world, for the root): rotation + translation, the 4x4 homogeneous warp
// collapsed into its two useful parts.
type NodeWarp struct {
	R cam.Mat3
	T cam.Vec3
}

// Compose returns a.R*b.R, a.R*b.T+a.T — the chained-warp composition
// a*b in homogeneous-matrix terms.
func (a NodeWarp) Compose(b NodeWarp) NodeWarp {
	return NodeWarp{R: a.R.Mul(b.R), T: a.R.MulVec(b.T).Add(a.T)}
}

// CalcNodeWarps builds the per-joint rigid warp relative to its parent
// (root relative to world), given the shape-blended rest joints jBlend
// (only the first len(jBlend) joints are touched, supporting the
// hierarchical solver's jCut prefix).
func (d Def) CalcNodeWarps(p Param, jBlend []cam.Vec3) []NodeWarp {
	out := make([]NodeWarp, len(jBlend))
	for j := range jBlend {
		var t cam.Vec3
		if j == 0 {
			t = jBlend[j].Add(p.Trans)
		} else {
			t = jBlend[j].Sub(jBlend[d.Parent[j]])
		}
		out[j] = NodeWarp{R: cam.Rodrigues(p.Pose[j]), T: t}
	}
	return out
}

// CalcChainWarps composes node warps along the kinematic chain:
// chain[0] = node[0]; chain[j] = chain[parent[j]] * node[j] for j>0. This
// relies on parent[j] < j, guaranteed by the topology tables (see
// skel.TestParentOrderingIsToposorted).
func (d Def) CalcChainWarps(nodeWarps []NodeWarp) []NodeWarp {
	out := make([]NodeWarp, len(nodeWarps))
	for j := range nodeWarps {
		if j == 0 {
			out[j] = nodeWarps[j]
		} else {
			out[j] = out[d.Parent[j]].Compose(nodeWarps[j])
		}
	}
	return out
}

// CalcJFinal extracts the final joint position (the translation part) from
// each chained warp.
func CalcJFinal(chainWarps []NodeWarp) []cam.Vec3 {
	out := make([]cam.Vec3, len(chainWarps))
	for j, w := range chainWarps {
		out[j] = w.T
	}
	return out
}

// Def bundles a skeleton's fixed topology with its model for FK-chain
// methods that need both (parent array from skel.Def, rest pose from
// Model). It is a thin pairing, not a new registry.
type Def struct {
	skel.Def
	Model Model
}

// NewDef loads the topology and model together.
func NewDef(t skel.Type, m Model) Def {
	if m.Type != t {
		chk.Panic("drive: model type %v does not match requested type %v", m.Type, t)
	}
	return Def{Def: skel.GetDef(t), Model: m}
}

// CalcJFinalFromParam runs the whole FK chain (blend -> node warps -> chain
// warps -> final joints) for jCut joints (0 meaning "all joints"),
// mirroring SkelDriver::CalcJFinal(param, jCut).
func (d Def) CalcJFinalFromParam(p Param, jCut int) []cam.Vec3 {
	if jCut <= 0 {
		jCut = len(d.Model.Joints)
	}
	jBlend := d.Model.CalcJBlend(p.Shape)[:jCut]
	return CalcJFinal(d.CalcChainWarps(d.CalcNodeWarps(p, jBlend)))
}
