package service

import (
	"os"
	"testing"

	"github.com/auragold/trading-api/internal/testutil/dblock"
)

func TestMain(m *testing.M) {
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}
