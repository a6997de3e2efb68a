package pathoram

import "testing"

func TestTreeGeometryPathOfStartsAtLeafEndsAtRoot(t *testing.T) {
	geo := newTreeGeometry(3) // 8 leaves, 15 buckets
	path := geo.pathOf(5)

	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4", len(path))
	}
	if path[len(path)-1] != 0 {
		t.Fatalf("path root = %d, want 0", path[len(path)-1])
	}
	if path[0] != geo.bucketFor(geo.height, 5) {
		t.Fatalf("path[0] = %d, want leaf bucket %d", path[0], geo.bucketFor(geo.height, 5))
	}
}

func TestTreeGeometryPathOfSiblingLeavesShareRoot(t *testing.T) {
	geo := newTreeGeometry(4)
	pathA := geo.pathOf(0)
	pathB := geo.pathOf(1)

	if pathA[len(pathA)-1] != pathB[len(pathB)-1] {
		t.Fatalf("sibling leaves should share a root bucket: %d vs %d", pathA[len(pathA)-1], pathB[len(pathB)-1])
	}
}

func TestTreeGeometryCanPlace(t *testing.T) {
	geo := newTreeGeometry(3)

	if !geo.canPlace(5, 5, geo.height) {
		t.Fatal("a leaf must be able to place at its own leaf bucket")
	}
	if !geo.canPlace(5, 5, 0) {
		t.Fatal("every leaf can place at the root")
	}
	if geo.canPlace(0, 7, geo.height) {
		t.Fatal("leaf 0 should not place in leaf 7's own bucket")
	}
}

func TestTreeGeometryValidLeaf(t *testing.T) {
	geo := newTreeGeometry(3)
	if !geo.validLeaf(0) || !geo.validLeaf(7) {
		t.Fatal("0 and numLeaves-1 must be valid")
	}
	if geo.validLeaf(-1) || geo.validLeaf(8) {
		t.Fatal("out-of-range leaves must be rejected")
	}
}

func TestBucketForMatchesPathOf(t *testing.T) {
	geo := newTreeGeometry(4)
	for leaf := 0; leaf < geo.numLeaves; leaf++ {
		path := geo.pathOf(leaf)
		for level := 0; level <= geo.height; level++ {
			want := geo.bucketFor(level, leaf)
			got := path[geo.height-level]
			if got != want {
				t.Fatalf("leaf %d level %d: bucketFor=%d, pathOf=%d", leaf, level, want, got)
			}
		}
	}
}
