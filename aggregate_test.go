package labordash_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulllvoid/labordash"
)

func TestPercentile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
		ok     bool
	}{
		{"empty", nil, 50, 0, false},
		{"single", []float64{7}, 90, 7, true},
		{"median odd", []float64{3, 1, 2}, 50, 2, true},
		{"median even", []float64{1, 2, 3, 4}, 50, 2.5, true},
		{"p10 interpolated", []float64{10, 20, 30, 40, 50}, 10, 14, true},
		{"p0 is min", []float64{5, 1, 9}, 0, 1, true},
		{"p100 is max", []float64{5, 1, 9}, 100, 9, true},
		{"clamped above", []float64{5, 1, 9}, 150, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := labordash.Percentile(tt.values, tt.p)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPercentile_DoesNotReorderInput(t *testing.T) {
	t.Parallel()

	values := []float64{3, 1, 2}
	_, _ = labordash.Percentile(values, 50)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	left := labordash.NewTable(
		labordash.NewSchema("left",
			labordash.Column{Name: "K", Kind: labordash.KindString},
			labordash.Column{Name: "NAME", Kind: labordash.KindString},
		),
		labordash.Record{"K": "a", "NAME": "left-a"},
		labordash.Record{"K": "b", "NAME": "left-b"},
		labordash.Record{"K": "c", "NAME": "left-c"},
	)
	right := labordash.NewTable(
		labordash.NewSchema("right",
			labordash.Column{Name: "K", Kind: labordash.KindString},
			labordash.Column{Name: "NAME", Kind: labordash.KindString},
			labordash.Column{Name: "V", Kind: labordash.KindNumber},
		),
		labordash.Record{"K": "c", "NAME": "right-c", "V": 3.0},
		labordash.Record{"K": "a", "NAME": "right-a", "V": 1.0},
		labordash.Record{"K": "a", "NAME": "dup", "V": 99.0},
	)

	got := labordash.Join(left, right, "K", "NAME", "V")

	assert.Equal(t, []string{"K", "NAME", "NAME_right", "V"}, got.Schema.Names())
	want := []labordash.Record{
		{"K": "a", "NAME": "left-a", "NAME_right": "right-a", "V": 1.0},
		{"K": "c", "NAME": "left-c", "NAME_right": "right-c", "V": 3.0},
	}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Errorf("Join() mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupSum(t *testing.T) {
	t.Parallel()

	table := labordash.NewTable(
		labordash.NewSchema("t",
			labordash.Column{Name: "G", Kind: labordash.KindString},
			labordash.Column{Name: "N", Kind: labordash.KindNumber},
		),
		labordash.Record{"G": "x", "N": 1.0},
		labordash.Record{"G": "y", "N": nil},
		labordash.Record{"G": "x", "N": 2.5},
		labordash.Record{"G": nil, "N": 10.0},
		labordash.Record{"G": "y", "N": 4.0},
	)

	got := labordash.GroupSum(table, "G", "N")

	want := []labordash.Record{
		{"G": "x", "N": 3.5},
		{"G": "y", "N": 4.0},
	}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Errorf("GroupSum() mismatch (-want +got):\n%s", diff)
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	table := fixtureTable(t, labordash.DatasetNatSector, natsectorCSV)
	got := labordash.Distinct(table, labordash.ColIndustry)

	require.Len(t, got, 4)
	assert.Equal(t, []string{
		"Finance and Insurance",
		"Health Care and Social Assistance",
		"Information",
		"Professional and Technical Services",
	}, got)
}
