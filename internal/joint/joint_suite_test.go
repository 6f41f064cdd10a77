package joint

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestJointSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Joint Suite")
}
