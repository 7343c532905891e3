package session

import (
	"errors"
	"math"
	"testing"
)

func TestDecodePointerReport_Mouse(t *testing.T) {
	desc := mouseDescriptor()

	// Left button held, dx=+16, dy=-16.
	axes, buttons, err := decodeReport(desc, []byte{0x01, 0x10, 0xF0})
	if err != nil {
		t.Fatalf("decodeReport() error = %v", err)
	}

	if len(axes) != 2 {
		t.Fatalf("decoded %d axes, want 2", len(axes))
	}
	if math.Abs(axes[0]-16.0/127.0) > 1e-9 {
		t.Errorf("axes[0] = %f, want %f", axes[0], 16.0/127.0)
	}
	if math.Abs(axes[1]-(-16.0/127.0)) > 1e-9 {
		t.Errorf("axes[1] = %f, want %f", axes[1], -16.0/127.0)
	}

	if len(buttons) != 2 {
		t.Fatalf("decoded %d buttons, want 2", len(buttons))
	}
	if !buttons[0] || buttons[1] {
		t.Errorf("buttons = %v, want [true false]", buttons)
	}
}

func TestDecodeSpaceReport(t *testing.T) {
	desc := spaceDescriptor()

	// Six little-endian int16 axes: 350, -350, 0, 175, -175, 700 (clamped),
	// then button_2 pressed.
	data := []byte{
		0x5E, 0x01, // 350
		0xA2, 0xFE, // -350
		0x00, 0x00, // 0
		0xAF, 0x00, // 175
		0x51, 0xFF, // -175
		0xBC, 0x02, // 700 → clamps to 1.0
		0x02, // button bitmap
	}

	axes, buttons, err := decodeReport(desc, data)
	if err != nil {
		t.Fatalf("decodeReport() error = %v", err)
	}

	want := []float64{1.0, -1.0, 0.0, 0.5, -0.5, 1.0}
	for i, w := range want {
		if math.Abs(axes[i]-w) > 1e-9 {
			t.Errorf("axes[%d] = %f, want %f", i, axes[i], w)
		}
	}

	if buttons[0] || !buttons[1] {
		t.Errorf("buttons = %v, want [false true]", buttons)
	}
}

func TestDecodeSpaceReport_NoButtonByte(t *testing.T) {
	desc := spaceDescriptor()
	data := make([]byte, 12) // exactly six zero axes, no trailing bitmap

	axes, buttons, err := decodeReport(desc, data)
	if err != nil {
		t.Fatalf("decodeReport() error = %v", err)
	}
	if len(axes) != 6 {
		t.Errorf("decoded %d axes, want 6", len(axes))
	}
	if len(buttons) != 2 || buttons[0] || buttons[1] {
		t.Errorf("buttons = %v, want [false false]", buttons)
	}
}

func TestDecodeReport_TooShort(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "mouse short", data: []byte{0x00, 0x10}},
		{name: "space short", data: []byte{0x01, 0x02, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := mouseDescriptor()
			if tt.name == "space short" {
				desc = spaceDescriptor()
			}
			_, _, err := decodeReport(desc, tt.data)
			if !errors.Is(err, ErrMalformedReport) {
				t.Errorf("decodeReport() error = %v, want ErrMalformedReport", err)
			}
		})
	}
}
