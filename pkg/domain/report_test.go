package domain_test

import (
	"testing"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRunReport_Status(t *testing.T) {
	tests := []struct {
		name   string
		report domain.RunReport
		want   domain.RunStatus
	}{
		{
			name: "no failures",
			report: domain.RunReport{
				Entries:   []string{"a"},
				Completed: []domain.StepResult{{Step: "a"}},
			},
			want: domain.RunSucceeded,
		},
		{
			name: "entry completed, branch failed",
			report: domain.RunReport{
				Entries:   []string{"a"},
				Completed: []domain.StepResult{{Step: "a"}, {Step: "c"}},
				Failures:  []domain.BranchFailure{{Step: "b", Abandoned: []string{"d"}}},
			},
			want: domain.RunPartial,
		},
		{
			name: "every entry failed",
			report: domain.RunReport{
				Entries:  []string{"a", "x"},
				Failures: []domain.BranchFailure{{Step: "a"}, {Step: "x"}},
			},
			want: domain.RunFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Status())
		})
	}
}

func TestBranchFailure_Branch(t *testing.T) {
	f := domain.BranchFailure{Step: "b", Abandoned: []string{"d", "e"}}
	assert.Equal(t, []string{"b", "d", "e"}, f.Branch())
}
