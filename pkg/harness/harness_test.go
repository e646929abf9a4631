package harness

import (
	"testing"

	"github.com/devicelab-dev/domquery/pkg/core"
)

func TestRenderT_QueriesScreen(t *testing.T) {
	s := RenderT(t, `<h1>Counter</h1><button id="inc" role="button">+1</button><span id="value">0</span>`)

	btn, err := s.GetByRole("button")
	if err != nil {
		t.Fatalf("GetByRole(button): %v", err)
	}
	if btn.ID() != "inc" {
		t.Errorf("GetByRole(button) = %s, want inc", btn)
	}
	value, err := s.GetByID("value")
	if err != nil {
		t.Fatal(err)
	}
	if n, err := value.Int(); err != nil || n != 0 {
		t.Errorf("value.Int() = %d, %v", n, err)
	}
	if _, err := s.GetByText("Counter"); err != nil {
		t.Errorf("GetByText(Counter): %v", err)
	}
}

func TestScreen_Close(t *testing.T) {
	s, err := Render(`<p id="p">bye</p>`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s.Close()
	s.Close()

	if !s.Closed() {
		t.Error("Closed() = false after Close")
	}
	if _, err := s.GetByID("p"); !core.IsNotFound(err) {
		t.Errorf("GetByID after Close = %v, want not found", err)
	}
	if err := s.Update(`<p>again</p>`); err != ErrClosed {
		t.Errorf("Update after Close = %v, want ErrClosed", err)
	}
}

func TestScreen_Update(t *testing.T) {
	s := RenderT(t, `<p id="old">old</p>`)
	if err := s.Update(`<p id="new">new</p>`); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := s.GetByID("old"); !core.IsNotFound(err) {
		t.Errorf("old content still present: %v", err)
	}
	if _, err := s.GetByText("new"); err != nil {
		t.Errorf("GetByText(new): %v", err)
	}
	if s.HTML() != `<p id="new">new</p>` {
		t.Errorf("HTML() = %q", s.HTML())
	}
}

func TestScreen_Within(t *testing.T) {
	s := RenderT(t, `<ul id="a"><li>x</li></ul><ul id="b"><li>x</li></ul>`)
	if _, err := s.GetByText("x"); !core.IsMoreThanOne(err) {
		t.Errorf("GetByText(x) = %v, want more than one", err)
	}
	b, err := s.GetByID("b")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Within(b).GetByText("x"); err != nil {
		t.Errorf("Within(b).GetByText(x): %v", err)
	}
}
