package spbvp

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSPBVP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SPBVP Suite")
}
