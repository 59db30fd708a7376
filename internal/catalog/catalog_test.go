package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		v    Variant
		want string
	}{
		{"simple product", Variant{HasVariants: false, Color: "Rojo"}, NoVariantLabel},
		{"no attributes", Variant{HasVariants: true}, StandardLabel},
		{"color and size", Variant{HasVariants: true, Color: "Rojo", Size: "M"}, "Rojo / M"},
		{"all attributes", Variant{HasVariants: true, Color: "Azul", Size: "L", Weight: 250, Luminous: true}, "Azul / L / 250g / Luminoso"},
		{"fractional weight", Variant{HasVariants: true, Weight: 12.5}, "12.5g"},
		{"luminous only", Variant{HasVariants: true, Luminous: true}, LuminousLabel},
		{"blank color ignored", Variant{HasVariants: true, Color: "  ", Size: "S"}, "S"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.v))
		})
	}
}

func TestDescribe_Deterministic(t *testing.T) {
	v := Variant{HasVariants: true, Color: "Verde", Size: "XL", Weight: 100}
	first := Describe(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Describe(v))
	}
}
