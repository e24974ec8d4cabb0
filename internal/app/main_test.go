package app

import (
	"testing"

	"github.com/monitorctl/monitorctl/internal/testutils"
)

func TestMain(m *testing.M) {
	testutils.Main(m)
}
