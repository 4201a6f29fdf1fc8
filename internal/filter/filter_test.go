package filter

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/store"
)

type fakeService struct {
	calls atomic.Int32
	last  *client.FilterRequest
	resp  *client.FilterResponse
	err   error
}

func (f *fakeService) Filter(_ context.Context, req *client.FilterRequest) (*client.FilterResponse, error) {
	f.calls.Add(1)
	f.last = req
	return f.resp, f.err
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		input   string
		want    SortOption
		wantErr bool
	}{
		{input: "", want: SortAsc},
		{input: "asc", want: SortAsc},
		{input: "DESC", want: SortDesc},
		{input: "빈도수 내림차순", want: SortDesc},
		{input: "빈도수 오름차순", want: SortAsc},
		{input: "alphabetical", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortOption(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortOption(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortOption(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Common"); err != nil || m != ModeCommon {
		t.Errorf("ParseMode(Common) = %q, %v", m, err)
	}
	if _, err := ParseMode("some"); !apperr.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestControlsIntent(t *testing.T) {
	controls := NewControls()
	controls.Files = NewSelection([]string{"A", "B", "C"})
	controls.Files.Set("B", false)

	all := controls.Intent()
	if all.Mode != ModeAll || len(all.SelectedFiles) != 0 || all.SelectedFiles == nil {
		t.Errorf("all mode intent = %+v, want empty non-nil selection", all)
	}

	controls.Mode = ModeCommon
	common := controls.Intent()
	if !reflect.DeepEqual(common.SelectedFiles, []string{"A", "C"}) {
		t.Errorf("common selection = %v, want [A C]", common.SelectedFiles)
	}

	controls.Files.Only(nil)
	if got := controls.Intent().SelectedFiles; got == nil || len(got) != 0 {
		t.Errorf("empty common selection = %#v, want []", got)
	}
}

func TestIntentIsDefault(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   bool
	}{
		{"zero value", Intent{}, true},
		{"all ascending", Intent{Mode: ModeAll, Sort: SortAsc}, true},
		{"selection alone", Intent{Mode: ModeAll, Sort: SortAsc, SelectedFiles: []string{"A"}}, true},
		{"common mode", Intent{Mode: ModeCommon, Sort: SortAsc}, false},
		{"descending", Intent{Mode: ModeAll, Sort: SortDesc}, false},
		{"include all common", Intent{IncludeAllCommon: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.IsDefault(); got != tt.want {
				t.Errorf("IsDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection([]string{"A", "B"})
	if s.Toggle("A") {
		t.Error("A should be unchecked after toggle")
	}
	if s.Toggle("missing") {
		t.Error("unknown file should not toggle")
	}
	if got := s.Checked(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("Checked() = %v", got)
	}
}

func TestRunNoopWhenEmpty(t *testing.T) {
	svc := &fakeService{}
	st := store.New()
	session := NewSession(svc, st, nil)

	ran, err := session.Run(context.Background(), NewControls().Intent())
	if err != nil || ran {
		t.Fatalf("Run() = %v, %v; want false, nil", ran, err)
	}
	if svc.calls.Load() != 0 {
		t.Errorf("service called %d times, want 0", svc.calls.Load())
	}
	if st.Generation() != 0 {
		t.Errorf("store changed on no-op")
	}
}

func TestRunReplacesAndKeepsFilenames(t *testing.T) {
	svc := &fakeService{resp: &client.FilterResponse{
		Success:   true,
		Results:   []string{"的: A: 5, B: 3"},
		DataCount: 1,
	}}
	st := store.New()
	st.Replace(store.AnalysisSet{
		Results:   []string{"的: A: 5, B: 3", "了: A: 2"},
		Filenames: []string{"A", "B"},
		DataCount: 2,
	})

	session := NewSession(svc, st, nil)
	ran, err := session.Run(context.Background(), Intent{Mode: ModeCommon, SelectedFiles: []string{"A", "B"}, Sort: SortDesc})
	if err != nil || !ran {
		t.Fatalf("Run() = %v, %v", ran, err)
	}

	got := st.Current()
	want := store.AnalysisSet{Results: []string{"的: A: 5, B: 3"}, Filenames: []string{"A", "B"}, DataCount: 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("store = %+v, want %+v", got, want)
	}
	if svc.last.SortOption != "빈도수 내림차순" || svc.last.Mode != "common" {
		t.Errorf("request = %+v", svc.last)
	}
}

func TestRunFailureLeavesStore(t *testing.T) {
	svc := &fakeService{err: apperr.NewFilterError(400, "bad filter")}
	st := store.New()
	st.Replace(store.AnalysisSet{Results: []string{"x: A: 1"}, Filenames: []string{"A"}, DataCount: 1})
	before := st.Current()

	_, err := NewSession(svc, st, nil).Run(context.Background(), NewControls().Intent())
	if !apperr.IsFilterError(err) {
		t.Fatalf("expected filter error, got %v", err)
	}
	if !reflect.DeepEqual(st.Current(), before) {
		t.Error("store changed after failed filter")
	}
}

func TestApplyWrapsUnknownErrors(t *testing.T) {
	boom := errors.New("boom")
	st := store.New()
	st.Replace(store.AnalysisSet{Results: []string{"x: A: 1"}})

	_, err := NewSession(&fakeService{err: boom}, st, nil).Apply(context.Background(), Intent{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
}
