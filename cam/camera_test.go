package cam

import (
	"math"
	"testing"
)

func identityCamera() Camera {
	var c Camera
	k := Mat3{{1000, 0, 500}, {0, 1000, 500}, {0, 0, 1}}
	c.SetExtrinsics(k, identity3(), Vec3{0, 0, 0})
	return c
}

func TestParseRTForm(t *testing.T) {
	js := []byte(`{
		"K": [1000,0,500, 0,1000,500, 0,0,1],
		"RT": [1,0,0,0, 0,1,0,0, 0,0,1,5],
		"imgSize": [1920,1080]
	}`)
	c, err := Parse(js)
	if err != nil {
		t.Fatal(err)
	}
	if c.T[2] != 5 {
		t.Fatalf("expected Tz=5, got %v", c.T[2])
	}
}

func TestParseRodriguesAndMatrixAgree(t *testing.T) {
	jsRod := []byte(`{"K":[1,0,0,0,1,0,0,0,1],"R":[0,0,0],"T":[0,0,0],"imgSize":[10,10]}`)
	jsMat := []byte(`{"K":[1,0,0,0,1,0,0,0,1],"R":[1,0,0,0,1,0,0,0,1],"T":[0,0,0],"imgSize":[10,10]}`)
	c1, err := Parse(jsRod)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Parse(jsMat)
	if err != nil {
		t.Fatal(err)
	}
	if c1.R != c2.R {
		t.Fatalf("expected identical rotations, got %v vs %v", c1.R, c2.R)
	}
}

func TestRayPassesThroughPrincipalPoint(t *testing.T) {
	c := identityCamera()
	ray := c.Ray(500, 500)
	// ray should point straight along +z (or -z given sign convention);
	// its x,y components must vanish at the principal point.
	if math.Abs(ray[0]) > 1e-9 || math.Abs(ray[1]) > 1e-9 {
		t.Fatalf("expected ray through principal point to have zero x,y, got %v", ray)
	}
}

func TestProjectMatchesPinholeFormula(t *testing.T) {
	c := identityCamera()
	p := Vec3{1, 2, 10}
	uvw := c.Project(p)
	u, v := uvw[0]/uvw[2], uvw[1]/uvw[2]
	wantU := 1000*1/10.0 + 500
	wantV := 1000*2/10.0 + 500
	if math.Abs(u-wantU) > 1e-9 || math.Abs(v-wantV) > 1e-9 {
		t.Fatalf("expected (%v,%v), got (%v,%v)", wantU, wantV, u, v)
	}
}

func TestFundamentalSelfIsZeroForZeroBaseline(t *testing.T) {
	// F for two identical cameras (zero baseline) degenerates to a zero
	// relative translation skew, hence F == 0.
	c := identityCamera()
	f := c.Fundamental(c)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(f[i][j]) > 1e-9 {
				t.Fatalf("expected zero fundamental matrix for zero baseline, got %v", f)
			}
		}
	}
}

func TestParseSetSortsNames(t *testing.T) {
	js := []byte(`{
		"camB": {"K":[1,0,0,0,1,0,0,0,1],"R":[0,0,0],"T":[0,0,0],"imgSize":[1,1]},
		"camA": {"K":[1,0,0,0,1,0,0,0,1],"R":[0,0,0],"T":[0,0,0],"imgSize":[1,1]}
	}`)
	set, err := ParseSet(js)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Names) != 2 || set.Names[0] != "camA" || set.Names[1] != "camB" {
		t.Fatalf("expected sorted [camA camB], got %v", set.Names)
	}
}
