package dirstat

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestAggregate(t *testing.T) {
	records := []FileRecord{
		{Path: "a.png", Size: 2048, IsImage: true, Width: 100, Height: 50},
		{Path: "b.png", Size: 1024, IsImage: true, Width: 300, Height: 150},
		{Path: "big.txt", Size: 1 << 30},
	}

	got := Aggregate("dir", records)
	want := DirectoryStatistic{
		Path:      "dir",
		Count:     3,
		Images:    2,
		SumSize:   3072,
		MaxSize:   2048,
		AvgSize:   1536,
		SumWidth:  400,
		MaxWidth:  300,
		AvgWidth:  200,
		SumHeight: 200,
		MaxHeight: 150,
		AvgHeight: 100,
	}
	if got != want {
		t.Errorf("Aggregate() = %+v\nwant %+v", got, want)
	}
}

func TestAggregate_NoImages(t *testing.T) {
	tests := []struct {
		name    string
		records []FileRecord
		count   int
	}{
		{"empty directory", nil, 0},
		{"only plain files", []FileRecord{{Path: "a.txt", Size: 10}, {Path: "b.md", Size: 20}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("d", tt.records)
			if got.Count != tt.count || got.Images != 0 {
				t.Errorf("Count/Images = %d/%d", got.Count, got.Images)
			}
			if got.AvgSize != 0 || got.AvgWidth != 0 || got.AvgHeight != 0 {
				t.Errorf("averages = %v/%v/%v, want zeros", got.AvgSize, got.AvgWidth, got.AvgHeight)
			}
			if got.SumSize != 0 || got.MaxSize != 0 {
				t.Errorf("plain files contributed to size: %+v", got)
			}
		})
	}
}

func TestAggregate_AveragesKeepPrecision(t *testing.T) {
	got := Aggregate("d", []FileRecord{
		{IsImage: true, Size: 1, Width: 1, Height: 1},
		{IsImage: true, Size: 1, Width: 1, Height: 1},
		{IsImage: true, Size: 2, Width: 2, Height: 2},
	})
	if want := 4.0 / 3.0; got.AvgWidth != want {
		t.Errorf("AvgWidth = %v, want unrounded %v", got.AvgWidth, want)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		stat DirectoryStatistic
		want string
	}{
		{
			name: "images",
			stat: Aggregate("d", []FileRecord{
				{Size: 2048, IsImage: true, Width: 100, Height: 50},
				{Size: 1024, IsImage: true, Width: 300, Height: 150},
				{Size: 10},
			}),
			want: `{"files":3,"images":2,"size":"3 KB","avgSize":"2 KB","maxWidth":300,` +
				`"avgWidth":"200.00","maxHeight":150,"avgHeight":"100.00"}`,
		},
		{
			name: "no images",
			stat: Aggregate("d", []FileRecord{{Size: 10}}),
			want: `{"files":1,"images":0,"size":"0 B","avgSize":"0 B","maxWidth":0,` +
				`"avgWidth":"0.00","maxHeight":0,"avgHeight":"0.00"}`,
		},
		{
			name: "thirds and errors",
			stat: DirectoryStatistic{Count: 4, Images: 3, Errors: 1, AvgWidth: 4.0 / 3.0, AvgHeight: 2.0 / 3.0},
			want: `{"files":4,"images":3,"size":"0 B","avgSize":"0 B","maxWidth":0,` +
				`"avgWidth":"1.33","maxHeight":0,"avgHeight":"0.67","errors":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stat.Summary(); got != tt.want {
				t.Errorf("Summary() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestExtensionSet(t *testing.T) {
	s := NewExtensionSet()
	s.Add(".JPG", ".jpg", ".png", "", ".Png")
	s.Add(".txt")

	want := []string{".jpg", ".png", ".txt"}
	if got := s.Sorted(); !slices.Equal(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d", s.Len())
	}
}

func TestExtensionSet_Concurrent(t *testing.T) {
	s := NewExtensionSet()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(fmt.Sprintf(".e%d", i%10), ".shared")
		}()
	}
	wg.Wait()

	if s.Len() != 11 {
		t.Errorf("Len() = %d, want 11", s.Len())
	}
}
