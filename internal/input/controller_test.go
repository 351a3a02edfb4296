package input

import (
	"testing"
)

func TestNew_ShouldCreateControllerWithDefaultState(t *testing.T) {
	controller := New()

	if controller.Buttons != 0 || controller.Shift != 0 || controller.Strobe {
		t.Errorf("unexpected initial state %+v", controller)
	}
}

func TestSetButton_ShouldUpdateButtonState(t *testing.T) {
	controller := New()
	buttons := []Button{
		ButtonA, ButtonB, ButtonSelect, ButtonStart,
		ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
	}

	for _, button := range buttons {
		controller.SetButton(button, true)
		if !controller.IsPressed(button) {
			t.Errorf("Button %d should be pressed after SetButton(true)", button)
		}
		if controller.Buttons != uint8(button) {
			t.Errorf("Expected buttons state %d, got %d", uint8(button), controller.Buttons)
		}
		controller.SetButton(button, false)
		if controller.IsPressed(button) {
			t.Errorf("Button %d should not be pressed after SetButton(false)", button)
		}
	}
}

func readAll(c *Controller, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = c.Read()
	}
	return out
}

func TestRead_ShiftOrder(t *testing.T) {
	controller := New()
	controller.SetButtons(uint8(ButtonA | ButtonStart | ButtonLeft))
	controller.Write(1)
	controller.Write(0)

	got := readAll(controller, 8)
	want := []uint8{1, 0, 0, 1, 0, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bit %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRead_AfterEightBits_ShouldReturnOnes(t *testing.T) {
	controller := New()
	controller.Write(1)
	controller.Write(0)
	readAll(controller, 8)

	for i, v := range readAll(controller, 4) {
		if v != 1 {
			t.Errorf("extra read %d = %d, want 1", i, v)
		}
	}
}

func TestRead_StrobeActive_ShouldReturnButtonAState(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonA, true)
	controller.Write(1)

	for i, v := range readAll(controller, 5) {
		if v != 1 {
			t.Errorf("read %d with strobe high = %d, want 1", i, v)
		}
	}
	controller.SetButton(ButtonA, false)
	if v := controller.Read(); v != 0 {
		t.Error("strobe high should follow the live A button")
	}
}

func TestRead_ButtonChangeAfterLatch_ShouldUseLatchedState(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonB, true)
	controller.Write(1)
	controller.Write(0)
	controller.SetButton(ButtonB, false)

	got := readAll(controller, 2)
	if got[1] != 1 {
		t.Error("B should still read pressed from the latched register")
	}
}

func TestWrite_StrobeWithHigherBits_ShouldIgnoreHigherBits(t *testing.T) {
	controller := New()
	controller.Write(0xFE)
	if controller.Strobe {
		t.Error("only bit 0 drives the strobe")
	}
}

func TestDump_HasNoSideEffects(t *testing.T) {
	controller := New()
	controller.SetButtons(0xFF)
	controller.Write(1)
	controller.Write(0)
	before := *controller
	controller.Dump()
	controller.Dump()
	if *controller != before {
		t.Error("Dump shifted the register")
	}
}

func TestReset_ShouldClearAllState(t *testing.T) {
	controller := New()
	controller.SetButtons(0xFF)
	controller.Write(1)
	controller.Reset()
	if controller.Buttons != 0 || controller.Shift != 0 || controller.Strobe {
		t.Errorf("state after reset %+v", controller)
	}
}

func TestPorts_WriteShouldStrobeBoth(t *testing.T) {
	p := NewPorts()
	p.SetButtons(0, uint8(ButtonA))
	p.SetButtons(1, uint8(ButtonB))
	p.Write(0x4016, 1)
	p.Write(0x4016, 0)

	if p.Read(0x4016) != 1 {
		t.Error("player 1 A should read first")
	}
	if p.Read(0x4017) != 0 || p.Read(0x4017) != 1 {
		t.Error("player 2 should report B second")
	}
}

func TestPorts_InvalidAddressAndPlayer(t *testing.T) {
	p := NewPorts()
	p.SetButtons(5, 0xFF)
	p.Write(0x4017, 1)
	if p.Controllers[0].Strobe || p.Controllers[1].Strobe {
		t.Error("$4017 writes do not reach the controllers")
	}
	if p.Read(0x4018) != 0 {
		t.Error("unmapped port should read 0")
	}
}

func TestParseBindings(t *testing.T) {
	b, err := ParseBindings(map[string]string{"A": "K", "start": "Space", "select": " "})
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	if len(b) != 2 || b[ButtonA] != "K" || b[ButtonStart] != "Space" {
		t.Errorf("unexpected bindings %v", b)
	}
	if _, err := ParseBindings(map[string]string{"turbo": "K"}); err == nil {
		t.Error("unknown button should fail")
	}
}

func TestCancelOpposites(t *testing.T) {
	tests := []struct {
		in, want uint8
	}{
		{uint8(ButtonA | ButtonUp), uint8(ButtonA | ButtonUp)},
		{uint8(ButtonLeft | ButtonRight | ButtonUp), uint8(ButtonUp)},
		{uint8(ButtonUp | ButtonDown | ButtonB), uint8(ButtonB)},
		{0xFF, uint8(ButtonA | ButtonB | ButtonSelect | ButtonStart)},
	}
	for _, tt := range tests {
		if got := CancelOpposites(tt.in); got != tt.want {
			t.Errorf("CancelOpposites(%08b) = %08b, want %08b", tt.in, got, tt.want)
		}
	}
}

func BenchmarkController_ReadSequence(b *testing.B) {
	controller := New()
	controller.SetButtons(0xA5)
	for i := 0; i < b.N; i++ {
		controller.Write(1)
		controller.Write(0)
		for j := 0; j < 8; j++ {
			controller.Read()
		}
	}
}
