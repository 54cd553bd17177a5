package core_test

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/Ogstra/ogs-traffic/core"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	Expect(err).ToNot(HaveOccurred())
	return t
}

func rec(count int64, value string) core.Record {
	return core.Record{Count: count, Timestamp: at(value)}
}

func counts(records []core.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.Count)
	}
	return out
}

var _ = Describe("Dataset", func() {
	var ds *core.Dataset

	BeforeEach(func() {
		ds = core.NewDataset(
			rec(5, "2023-01-02 08:00:00"),
			rec(10, "2023-01-02 08:30:00"),
			rec(3, "2023-01-02 09:00:00"),
		)
	})

	Describe("NewDataset", func() {
		It("copies the input and keeps its order", func() {
			input := []core.Record{
				rec(2, "2023-01-02 10:00:00"),
				rec(1, "2023-01-02 09:00:00"),
			}
			d := core.NewDataset(input...)
			input[0].Count = 99

			Expect(counts(d.Records())).To(Equal([]int64{2, 1}))
		})
	})

	Describe("Between", func() {
		It("includes both bounds and keeps dataset order", func() {
			got := ds.Between(at("2023-01-02 08:00:00"), at("2023-01-02 08:30:00"))

			Expect(counts(got)).To(Equal([]int64{5, 10}))
		})

		It("returns an empty slice for an inverted range", func() {
			got := ds.Between(at("2023-01-02 09:00:00"), at("2023-01-02 08:00:00"))

			Expect(got).ToNot(BeNil())
			Expect(got).To(BeEmpty())
		})
	})

	Describe("FilterByRange", func() {
		It("parses free-form bounds", func() {
			got, err := ds.FilterByRange("2023-01-02 08:15:00", "2023-01-02 09:00:00")

			Expect(err).ToNot(HaveOccurred())
			Expect(counts(got)).To(Equal([]int64{10, 3}))
		})

		It("returns an empty result when nothing matches", func() {
			got, err := ds.FilterByRange("2024-01-01 00:00:00", "2024-01-02 00:00:00")

			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("fails with ErrInvalidRange for an unparseable bound", func() {
			_, err := ds.FilterByRange("not a time", "2023-01-02 09:00:00")
			Expect(errors.Is(err, core.ErrInvalidRange)).To(BeTrue())

			_, err = ds.FilterByRange("2023-01-02 09:00:00", "")
			Expect(errors.Is(err, core.ErrInvalidRange)).To(BeTrue())
		})
	})

	Describe("Average", func() {
		It("is total divided by the number of records", func() {
			avg, err := ds.Average()

			Expect(err).ToNot(HaveOccurred())
			Expect(avg).To(BeNumerically("~", 18.0/3.0, 1e-9))
		})

		It("fails on an empty dataset", func() {
			_, err := core.NewDataset().Average()

			Expect(err).To(MatchError(core.ErrEmptyDataset))
		})
	})

	Describe("PeakHour", func() {
		It("sums counts per hour and returns the busiest hour", func() {
			peak, err := ds.PeakHour()

			Expect(err).ToNot(HaveOccurred())
			Expect(peak).To(Equal(core.PeakHour{Hour: 8, Total: 15}))
		})

		It("resolves ties to the earliest hour", func() {
			d := core.NewDataset(
				rec(5, "2023-01-02 17:00:00"),
				rec(5, "2023-01-02 03:00:00"),
				rec(2, "2023-01-02 11:00:00"),
			)

			peak, err := d.PeakHour()

			Expect(err).ToNot(HaveOccurred())
			Expect(peak).To(Equal(core.PeakHour{Hour: 3, Total: 5}))
		})

		It("reports an hour even when every count is zero", func() {
			d := core.NewDataset(rec(0, "2023-01-02 14:00:00"))

			peak, err := d.PeakHour()

			Expect(err).ToNot(HaveOccurred())
			Expect(peak).To(Equal(core.PeakHour{Hour: 14, Total: 0}))
		})

		It("fails on an empty dataset", func() {
			_, err := core.NewDataset().PeakHour()

			Expect(err).To(MatchError(core.ErrEmptyDataset))
		})
	})

	Describe("Add", func() {
		It("inserts the record and re-sorts by timestamp", func() {
			d := core.NewDataset(rec(1, "2024-03-01 12:00:00"))

			added, err := d.Add("7", "2024-03-01 10:00:00")

			Expect(err).ToNot(HaveOccurred())
			Expect(added.Count).To(Equal(int64(7)))
			Expect(d.Len()).To(Equal(2))
			records := d.Records()
			Expect(records[0].Timestamp).To(BeTemporally("==", at("2024-03-01 10:00:00")))
			Expect(records[1].Timestamp).To(BeTemporally("==", at("2024-03-01 12:00:00")))
		})

		It("keeps insertion order between equal timestamps", func() {
			d := core.NewDataset(rec(1, "2024-03-01 12:00:00"))

			_, err := d.Add("2", "2024-03-01 12:00:00")

			Expect(err).ToNot(HaveOccurred())
			Expect(counts(d.Records())).To(Equal([]int64{1, 2}))
		})

		It("sorts records that were loaded out of order", func() {
			d := core.NewDataset(
				rec(1, "2024-03-01 12:00:00"),
				rec(2, "2024-03-01 08:00:00"),
			)

			_, err := d.Add("3", "2024-03-01 10:00:00")

			Expect(err).ToNot(HaveOccurred())
			Expect(counts(d.Records())).To(Equal([]int64{2, 3, 1}))
		})

		table.DescribeTable("rejects bad input without changing the dataset",
			func(count, timestamp string) {
				_, err := ds.Add(count, timestamp)

				Expect(errors.Is(err, core.ErrInvalidInput)).To(BeTrue())
				Expect(counts(ds.Records())).To(Equal([]int64{5, 10, 3}))
			},
			table.Entry("non-numeric count", "seven", "2024-03-01 10:00:00"),
			table.Entry("negative count", "-1", "2024-03-01 10:00:00"),
			table.Entry("fractional count", "1.5", "2024-03-01 10:00:00"),
			table.Entry("empty count", "", "2024-03-01 10:00:00"),
			table.Entry("bad timestamp", "7", "yesterday-ish"),
			table.Entry("empty timestamp", "7", ""),
		)

		table.DescribeTable("keeps the typed wall clock and survives export and reload",
			func(timestamp string) {
				d := core.NewDataset(
					rec(1, "2024-03-01 07:00:00"),
					rec(2, "2024-03-01 12:00:00"),
				)

				added, err := d.Add("7", timestamp)

				Expect(err).ToNot(HaveOccurred())
				Expect(added.Timestamp).To(Equal(at("2024-03-01 10:00:00")))
				Expect(counts(d.Records())).To(Equal([]int64{1, 7, 2}))
				peak, err := core.NewDataset(added).PeakHour()
				Expect(err).ToNot(HaveOccurred())
				Expect(peak.Hour).To(Equal(10))

				var buf bytes.Buffer
				Expect(d.WriteCSV(&buf)).To(Succeed())
				reloaded := core.NewDataset()
				Expect(reloaded.Load(strings.NewReader(buf.String()))).To(Succeed())
				Expect(reloaded.Records()).To(Equal(d.Records()))
			},
			table.Entry("zone offset", "2024-03-01T10:00:00+05:00"),
			table.Entry("fractional seconds", "2024-03-01 10:00:00.750"),
			table.Entry("plain", "2024-03-01 10:00:00"),
		)
	})

	Describe("Insert", func() {
		It("rejects a negative count", func() {
			err := ds.Insert(core.Record{Count: -4, Timestamp: at("2023-01-02 10:00:00")})

			Expect(errors.Is(err, core.ErrInvalidInput)).To(BeTrue())
			Expect(ds.Len()).To(Equal(3))
		})
	})

	Describe("Delete", func() {
		It("removes the record at the position and keeps the rest in order", func() {
			removed, err := ds.Delete(0)

			Expect(err).ToNot(HaveOccurred())
			Expect(removed.Count).To(Equal(int64(5)))
			Expect(counts(ds.Records())).To(Equal([]int64{10, 3}))
		})

		It("removes the last record", func() {
			_, err := ds.Delete(2)

			Expect(err).ToNot(HaveOccurred())
			Expect(counts(ds.Records())).To(Equal([]int64{5, 10}))
		})

		table.DescribeTable("fails for positions outside the dataset",
			func(pos int) {
				_, err := ds.Delete(pos)

				Expect(errors.Is(err, core.ErrIndexOutOfRange)).To(BeTrue())
				var idxErr *core.IndexError
				Expect(errors.As(err, &idxErr)).To(BeTrue())
				Expect(idxErr.Position).To(Equal(pos))
				Expect(ds.Len()).To(Equal(3))
			},
			table.Entry("one past the end", 3),
			table.Entry("negative", -1),
		)
	})

	Describe("Summary", func() {
		It("reports totals, extremes and the covered time span", func() {
			d := core.NewDataset(
				rec(10, "2023-01-02 09:00:00"),
				rec(4, "2023-01-02 07:00:00"),
				rec(7, "2023-01-02 08:00:00"),
			)

			s, err := d.Summary()

			Expect(err).ToNot(HaveOccurred())
			Expect(s.Entries).To(Equal(3))
			Expect(s.Total).To(Equal(int64(21)))
			Expect(s.Average).To(BeNumerically("~", 7.0, 1e-9))
			Expect(s.Min).To(Equal(int64(4)))
			Expect(s.Max).To(Equal(int64(10)))
			Expect(s.Start).To(BeTemporally("==", at("2023-01-02 07:00:00")))
			Expect(s.End).To(BeTemporally("==", at("2023-01-02 09:00:00")))
		})

		It("fails on an empty dataset", func() {
			_, err := core.NewDataset().Summary()

			Expect(err).To(MatchError(core.ErrEmptyDataset))
		})
	})

	Describe("Record", func() {
		It("renders as count and display timestamp", func() {
			Expect(rec(5, "2023-01-02 08:00:00").String()).To(Equal("5, 2023-01-02 08:00:00"))
		})
	})
})
