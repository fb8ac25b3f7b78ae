package cache

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestKeyDeriver_CompatibleParams(t *testing.T) {
	keyer := NewKeyDeriver()

	tests := []struct {
		name string
		spec TransformSpec
		want string
	}{
		{
			name: "defaults",
			spec: DefaultTransform(),
			want: "proportional_frame_transparency_notconstrainonly_ffffff_angle_quality90",
		},
		{
			name: "all flags inverted",
			spec: TransformSpec{
				ConstrainOnly: true,
				Background:    RGB{},
				Angle:         90,
				Quality:       75,
			},
			want: "nonproportional_noframe_notransparency_doconstrainonly_000000_angle90_quality75",
		},
		{
			name: "watermark without height",
			spec: func() TransformSpec {
				s := DefaultTransform()
				s.Watermark = &WatermarkSpec{File: "stores/default/wm.png", Opacity: 50, Position: "bottom-right", Width: 100}
				return s
			}(),
			want: "proportional_frame_transparency_notconstrainonly_ffffff_angle_quality90_stores/default/wm.png_50_bottom-right_100_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyer.Params(tt.spec); got != tt.want {
				t.Errorf("Params() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyDeriver_GoldenMD5Keys(t *testing.T) {
	keyer := NewKeyDeriver()

	watermarked := DefaultTransform()
	watermarked.Watermark = &WatermarkSpec{File: "stores/default/wm.png", Opacity: 50, Position: "bottom-right", Width: 100}

	tests := []struct {
		name string
		spec TransformSpec
		want Key
	}{
		{"defaults", DefaultTransform(), "9df78eab33525d08d6e5fb8d27136e95"},
		{"inverted", TransformSpec{ConstrainOnly: true, Angle: 90, Quality: 75}, "b070fd083ec3bc5c2ccc085dc8a849b0"},
		{"watermarked", watermarked, "8c7132d21ede86cebf5f65b3007be1ec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyer.Derive(tt.spec)
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Derive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyDeriver_DimensionsNotInKey(t *testing.T) {
	keyer := NewKeyDeriver()

	small := DefaultTransform()
	small.Width, small.Height = 100, 100
	large := DefaultTransform()
	large.Width, large.Height = 800, 600

	k1, _ := keyer.Derive(small)
	k2, _ := keyer.Derive(large)
	if k1 != k2 {
		t.Errorf("dimensions belong to the path, not the key: %q != %q", k1, k2)
	}
}

func TestKeyDeriver_SameInputsSameKey(t *testing.T) {
	keyer := NewKeyDeriver()
	spec := DefaultTransform()
	spec.Watermark = &WatermarkSpec{File: "wm.png", Opacity: 30, Position: "center"}

	first, err := keyer.Derive(spec)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		copied := spec
		wm := *spec.Watermark
		copied.Watermark = &wm
		got, err := keyer.Derive(copied)
		if err != nil {
			t.Fatalf("Derive() iteration %d error = %v", i, err)
		}
		if got != first {
			t.Errorf("Derive() iteration %d = %q, want %q", i, got, first)
		}
	}
}

func randomSpec(r *rand.Rand) TransformSpec {
	spec := TransformSpec{
		KeepAspectRatio:  r.Intn(2) == 0,
		KeepFrame:        r.Intn(2) == 0,
		KeepTransparency: r.Intn(2) == 0,
		ConstrainOnly:    r.Intn(2) == 0,
		Background:       RGB{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))},
		Angle:            r.Intn(4) * 90,
		Quality:          r.Intn(101),
	}
	if r.Intn(2) == 0 {
		spec.Watermark = &WatermarkSpec{
			File:     []string{"a.png", "b.png", "c.gif"}[r.Intn(3)],
			Opacity:  r.Intn(101),
			Position: []string{"center", "top-left", "tile"}[r.Intn(3)],
			Width:    r.Intn(3) * 50,
			Height:   r.Intn(3) * 50,
		}
	}
	return spec
}

func TestKeyDeriver_DistinctSpecsDistinctKeys(t *testing.T) {
	for _, digest := range []Digest{MD5Digest{}, XXHashDigest{}} {
		t.Run(digest.Name(), func(t *testing.T) {
			keyer := NewKeyDeriver(WithDigest(digest))
			r := rand.New(rand.NewSource(7))

			seen := make(map[Key]string)
			for i := 0; i < 2000; i++ {
				spec := randomSpec(r)
				params := keyer.Params(spec)
				key, err := keyer.Derive(spec)
				if err != nil {
					t.Fatalf("Derive(%+v) error = %v", spec, err)
				}
				if prev, ok := seen[key]; ok && prev != params {
					t.Fatalf("collision: %q and %q both map to %q", prev, params, key)
				}
				seen[key] = params
			}
		})
	}
}

func TestKeyDeriver_EveryFieldChangesKey(t *testing.T) {
	keyer := NewKeyDeriver()
	base := DefaultTransform()
	base.Watermark = &WatermarkSpec{File: "wm.png", Opacity: 50, Position: "center", Width: 10, Height: 10}
	baseKey, _ := keyer.Derive(base)

	mutations := map[string]func(*TransformSpec){
		"aspect":       func(s *TransformSpec) { s.KeepAspectRatio = false },
		"frame":        func(s *TransformSpec) { s.KeepFrame = false },
		"transparency": func(s *TransformSpec) { s.KeepTransparency = false },
		"constrain":    func(s *TransformSpec) { s.ConstrainOnly = true },
		"background":   func(s *TransformSpec) { s.Background = RGB{R: 1} },
		"angle":        func(s *TransformSpec) { s.Angle = 180 },
		"quality":      func(s *TransformSpec) { s.Quality = 80 },
		"wm file":      func(s *TransformSpec) { s.Watermark.File = "other.png" },
		"wm opacity":   func(s *TransformSpec) { s.Watermark.Opacity = 51 },
		"wm position":  func(s *TransformSpec) { s.Watermark.Position = "tile" },
		"wm width":     func(s *TransformSpec) { s.Watermark.Width = 11 },
		"wm height":    func(s *TransformSpec) { s.Watermark.Height = 11 },
		"no watermark": func(s *TransformSpec) { s.Watermark = nil },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			spec := base
			wm := *base.Watermark
			spec.Watermark = &wm
			mutate(&spec)

			key, err := keyer.Derive(spec)
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if key == baseKey {
				t.Errorf("mutation %q did not change the key", name)
			}
		})
	}
}

func TestKeyDeriver_KeyFormat(t *testing.T) {
	tests := []struct {
		digest Digest
		length int
	}{
		{MD5Digest{}, 32},
		{XXHashDigest{}, 16},
	}

	for _, tt := range tests {
		key, err := NewKeyDeriver(WithDigest(tt.digest)).Derive(DefaultTransform())
		if err != nil {
			t.Fatalf("%s: Derive() error = %v", tt.digest.Name(), err)
		}
		if len(key) != tt.length {
			t.Errorf("%s: key length = %d, want %d", tt.digest.Name(), len(key), tt.length)
		}
		for _, c := range string(key) {
			isLowerHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
			if !isLowerHex {
				t.Errorf("%s: key should be lowercase hex, got %q", tt.digest.Name(), key)
				break
			}
		}
	}
}

func TestKeyDeriver_InvalidTransform(t *testing.T) {
	keyer := NewKeyDeriver()

	tests := []struct {
		name string
		spec TransformSpec
	}{
		{"quality too high", TransformSpec{Quality: 101}},
		{"negative quality", TransformSpec{Quality: -1}},
		{"negative width", TransformSpec{Quality: 90, Width: -1}},
		{"watermark without file", TransformSpec{Quality: 90, Watermark: &WatermarkSpec{Opacity: 10}}},
		{"watermark opacity", TransformSpec{Quality: 90, Watermark: &WatermarkSpec{File: "a.png", Opacity: 200}}},
		{"watermark size", TransformSpec{Quality: 90, Watermark: &WatermarkSpec{File: "a.png", Width: -3}}},
		{"watermark position with separator", TransformSpec{Quality: 90, Watermark: &WatermarkSpec{File: "wm", Opacity: 50, Position: "50_center"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := keyer.Derive(tt.spec)
			if !errors.Is(err, ErrInvalidTransform) {
				t.Errorf("Derive() error = %v, want ErrInvalidTransform", err)
			}
		})
	}
}

func TestKeyDeriver_WatermarkFieldsUnambiguous(t *testing.T) {
	keyer := NewKeyDeriver()

	tests := []struct {
		name string
		a, b WatermarkSpec
	}{
		{
			"separator moved from position into file",
			WatermarkSpec{File: "wm_50", Opacity: 50, Position: "center"},
			WatermarkSpec{File: "wm", Opacity: 50, Position: "50_center"},
		},
		{
			"separator moved from file into position",
			WatermarkSpec{File: "wm_top", Opacity: 10, Position: "left"},
			WatermarkSpec{File: "wm", Opacity: 10, Position: "top_left"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specA, specB := DefaultTransform(), DefaultTransform()
			specA.Watermark, specB.Watermark = &tt.a, &tt.b

			keyA, err := keyer.Derive(specA)
			if err != nil {
				t.Fatalf("Derive(%+v) error = %v", tt.a, err)
			}
			keyB, err := keyer.Derive(specB)
			if err == nil && keyA == keyB {
				t.Fatalf("%+v and %+v both map to %q", tt.a, tt.b, keyA)
			}
			if !errors.Is(err, ErrInvalidTransform) {
				t.Errorf("Derive(%+v) error = %v, want ErrInvalidTransform", tt.b, err)
			}
		})
	}
}

func TestDigestByName(t *testing.T) {
	for _, name := range []string{"", "md5", "xxhash"} {
		d, ok := DigestByName(name)
		if !ok || d == nil {
			t.Errorf("DigestByName(%q) not found", name)
		}
	}
	if d, _ := DigestByName(""); d.Name() != "md5" {
		t.Errorf("default digest = %q, want md5", d.Name())
	}
	if _, ok := DigestByName("sha1"); ok {
		t.Error("DigestByName(sha1) should not be found")
	}
}

func TestXXHashDigest_Padded(t *testing.T) {
	for _, s := range []string{"", "a", strings.Repeat("x", 1000)} {
		if got := (XXHashDigest{}).Sum(s); len(got) != 16 {
			t.Errorf("Sum(%q) length = %d, want 16", s, len(got))
		}
	}
}
