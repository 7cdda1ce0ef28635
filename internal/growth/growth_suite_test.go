package growth

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGrowth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Growth Suite")
}
