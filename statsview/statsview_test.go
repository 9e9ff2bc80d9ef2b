package statsview_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ndsim/statsview"
)

var _ = Describe("URL", func() {
	It("should use the default address", func() {
		Expect(statsview.URL("")).To(Equal("http://localhost:12600/debug/statsview"))
	})

	It("should use a given address", func() {
		Expect(statsview.URL("127.0.0.1:9000")).To(Equal("http://127.0.0.1:9000/debug/statsview"))
	})
})
