package core_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Ogstra/ogs-traffic/core"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Watcher", func() {
	var (
		dir     string
		path    string
		changes int32
		watcher *core.Watcher
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "traffic-watch")
		Expect(err).ToNot(HaveOccurred())
		path = filepath.Join(dir, "data.csv")
		Expect(os.WriteFile(path, []byte("1,Mon Jan 02 08:00:00 2023\n"), 0o644)).To(Succeed())

		atomic.StoreInt32(&changes, 0)
		watcher = core.NewWatcher(path, 10*time.Millisecond, func(string) {
			atomic.AddInt32(&changes, 1)
		})
		watcher.Start()
	})

	AfterEach(func() {
		watcher.Stop()
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("does not fire for an unchanged file", func() {
		Consistently(func() int32 { return atomic.LoadInt32(&changes) }, "100ms").Should(BeZero())
	})

	It("fires when the file grows", func() {
		Expect(os.WriteFile(path, []byte("1,Mon Jan 02 08:00:00 2023\n2,Mon Jan 02 09:00:00 2023\n"), 0o644)).To(Succeed())

		Eventually(func() int32 { return atomic.LoadInt32(&changes) }).Should(BeNumerically(">=", 1))
	})

	It("can be stopped twice", func() {
		watcher.Stop()
		watcher.Stop()
	})
})
