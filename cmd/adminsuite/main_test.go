package main

import (
	"testing"

	"github.com/jehnsen/admin-suite/internal/app"
	_ "github.com/jehnsen/admin-suite/testing"
)

func TestMainSkipsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}
