package tether

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTether(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tether Suite")
}
