package auditor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"loan_audit/internal/ports"
	"loan_audit/internal/services/auditor/pipeline"
)

type fakeOpener struct {
	mu     sync.Mutex
	files  map[string]string
	opened []string
}

func (f *fakeOpener) Open(ctx context.Context, p string) (io.ReadCloser, ports.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, p)
	body, ok := f.files[p]
	if !ok {
		return nil, ports.Meta{}, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(body)), ports.Meta{Source: "fake", Path: p}, nil
}

type fakeStore struct {
	name string
	data []byte
}

func (f *fakeStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	f.name, f.data = name, data
	return "mem://" + name, nil
}

type fakeLookups struct {
	types, purposes []ports.CodeMapping
	err             error
}

func (f *fakeLookups) CollateralTypes(ctx context.Context) ([]ports.CodeMapping, error) {
	return f.types, f.err
}

func (f *fakeLookups) PurposeGroups(ctx context.Context) ([]ports.CodeMapping, error) {
	return f.purposes, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	started []string
	items   []string
	outcome *ports.RunOutcome
}

func (f *fakeRecorder) Start(ctx context.Context, runID string) error {
	f.started = append(f.started, runID)
	return nil
}

func (f *fakeRecorder) Item(ctx context.Context, runID, stage, status, message string, rows int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, status+":"+stage)
}

func (f *fakeRecorder) Finish(ctx context.Context, runID string, out ports.RunOutcome) error {
	f.outcome = &out
	return nil
}

type fakeWriter struct {
	kind string
	rows []ports.CodeMapping
}

func (f *fakeWriter) Replace(ctx context.Context, kind string, rows []ports.CodeMapping) (int, error) {
	f.kind, f.rows = kind, rows
	return len(rows), nil
}

const collateralHead = "BRANCH_VAY,CIF_KH_VAY,TEN_KH_VAY,CUSTTPCD,NHOM_NO,LOAI,CAP_2,TS_KW_VND,DU_NO_PHAN_BO_QUY_DOI,VALUATION_DATE,SECU_SRL_NUM\n"

func files() map[string]string {
	return map[string]string{
		"crm4_a.csv": collateralHead +
			"HANOI01,C1,Cty A,doanh nghiep,2,Cho vay,A1,100,50,2023-01-01,S1\n",
		"crm4_b.csv": collateralHead +
			"HANOI02,C2,Nguyen B,ca nhan,1,Cho vay,,0,30,,\n" +
			"SAIGON1,C3,Tran C,ca nhan,1,Cho vay,A1,10,10,,\n",
		"crm32.csv": "BRCD,CUSTSEQLN,CAP_PHE_DUYET,SCHEME_CODE,MUC_DICH_VAY_CAP_4,DU_NO_QUY_DOI,KHE_UOC\n" +
			"HANOI01,C1,5-Chuyen gia,ACOV1,P1,50,K1\n" +
			"HANOI02,C2,12-GD,X,P2,30,K2\n",
		"purpose.csv": "CODE_MDSDV4,GROUP\nP1,SXKD\nP2,Tiêu dùng\n",
	}
}

func newTestService(op *fakeOpener, rec ports.RunRecorder, lk ports.LookupSource) (*Service, *fakeStore) {
	st := &fakeStore{}
	svc := NewService(op, st, lk, rec, pipeline.DefaultRules())
	svc.AssessmentDate = pipeline.DefaultAssessmentDate
	return svc, st
}

func TestRunEndToEnd(t *testing.T) {
	op := &fakeOpener{files: files()}
	rec := &fakeRecorder{}
	lk := &fakeLookups{types: []ports.CodeMapping{{Code: "A1", Value: "BĐS"}}}
	svc, st := newTestService(op, rec, lk)

	res, err := svc.Run(context.Background(), Request{
		RunID:  "run-0001-abcdef",
		Branch: "hanoi",
		Inputs: Inputs{
			Collateral:    []string{"crm4_a.csv", "crm4_b.csv"},
			LoanTerms:     []string{"crm32.csv"},
			PurposeGroups: "purpose.csv",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "run-0001-abcdef", res.RunID)
	require.Equal(t, 2, res.Customers)
	require.Len(t, res.Inputs, 4)
	require.Equal(t, pipeline.TableCollateral, res.Inputs[0].Slot)
	require.Equal(t, "csv", res.Inputs[0].Format)
	require.Equal(t, "KQ_KH_HANOI_20250331_run-0001.xlsx", st.name)
	require.Equal(t, "mem://"+st.name, res.Output)

	f, err := excelize.OpenReader(bytes.NewReader(st.data))
	require.NoError(t, err)
	defer f.Close()
	require.Contains(t, f.GetSheetList(), pipeline.SheetMaster)
	rows, err := f.GetRows(pipeline.SheetMaster)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, []string{"run-0001-abcdef"}, rec.started)
	require.NotNil(t, rec.outcome)
	require.Equal(t, ports.RunDone, rec.outcome.Status)
	require.Equal(t, res.Output, rec.outcome.Output)
	require.Contains(t, rec.items, "inspect:flags")
}

func TestRunRequiresLedgers(t *testing.T) {
	op := &fakeOpener{files: files()}
	rec := &fakeRecorder{}
	svc, _ := newTestService(op, rec, nil)

	_, err := svc.Run(context.Background(), Request{
		Branch: "HANOI",
		Inputs: Inputs{Collateral: []string{"crm4_a.csv"}},
	})
	var mt *pipeline.MissingTableError
	require.ErrorAs(t, err, &mt)
	require.Equal(t, pipeline.TableLoanTerms, mt.Table)
	require.Empty(t, op.opened)
	require.Equal(t, ports.RunFailed, rec.outcome.Status)

	_, err = svc.Run(context.Background(), Request{Inputs: Inputs{Collateral: []string{"a"}, LoanTerms: []string{"b"}}})
	require.ErrorIs(t, err, pipeline.ErrBranchRequired)
}

func TestRunOpenFailureMarksFailed(t *testing.T) {
	op := &fakeOpener{files: files()}
	rec := &fakeRecorder{}
	svc, st := newTestService(op, rec, nil)

	_, err := svc.Run(context.Background(), Request{
		Branch: "HANOI",
		Inputs: Inputs{Collateral: []string{"crm4_a.csv"}, LoanTerms: []string{"missing.csv"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.csv")
	require.Nil(t, st.data)
	require.Equal(t, ports.RunFailed, rec.outcome.Status)
	require.NotEmpty(t, rec.outcome.Error)
}

func TestRunMissingAuxiliaryInputDegrades(t *testing.T) {
	op := &fakeOpener{files: files()}
	rec := &fakeRecorder{}
	svc, st := newTestService(op, rec, nil)

	res, err := svc.Run(context.Background(), Request{
		Branch: "hanoi",
		Inputs: Inputs{
			Collateral:  []string{"crm4_a.csv", "crm4_b.csv"},
			LoanTerms:   []string{"crm32.csv"},
			Settlements: "missing-settlements.xlsx",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Customers)
	require.NotNil(t, st.data)
	require.Len(t, res.Inputs, 3)
	for _, in := range res.Inputs {
		require.NotEqual(t, pipeline.TableSettlements, in.Slot)
	}

	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "missing-settlements.xlsx") {
			found = true
		}
	}
	require.True(t, found, "warnings: %v", res.Warnings)

	require.Equal(t, ports.RunDone, rec.outcome.Status)
	require.Empty(t, rec.outcome.Error)
	require.Contains(t, rec.items, "warning:warning")
}

func TestRunNoMatchingBranchWritesNothing(t *testing.T) {
	op := &fakeOpener{files: files()}
	svc, st := newTestService(op, nil, &fakeLookups{err: errors.New("pg down")})

	res, err := svc.Run(context.Background(), Request{
		Branch: "DANANG",
		Inputs: Inputs{Collateral: []string{"crm4_a.csv"}, LoanTerms: []string{"crm32.csv"}},
	})
	require.NoError(t, err)
	require.Equal(t, "", res.Output)
	require.Nil(t, st.data)
	require.Equal(t, 0, res.Customers)
	require.NotEmpty(t, res.Warnings)
	require.Contains(t, res.Warnings[0], "unavailable")
}

func TestRunUsesRequestAssessmentDate(t *testing.T) {
	op := &fakeOpener{files: files()}
	svc, st := newTestService(op, nil, nil)

	_, err := svc.Run(context.Background(), Request{
		RunID:          "r",
		Branch:         "HANOI01",
		AssessmentDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Inputs:         Inputs{Collateral: []string{"crm4_a.csv"}, LoanTerms: []string{"crm32.csv"}},
	})
	require.NoError(t, err)
	require.Equal(t, "KQ_KH_HANOI01_20251231_r.xlsx", st.name)
}

func TestImportLookup(t *testing.T) {
	op := &fakeOpener{files: files()}
	svc, _ := newTestService(op, nil, nil)
	w := &fakeWriter{}

	n, err := svc.ImportLookup(context.Background(), w, ports.LookupPurposeGroups, "purpose.csv")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, ports.LookupPurposeGroups, w.kind)
	require.Equal(t, ports.CodeMapping{Code: "P2", Value: "Tiêu dùng"}, w.rows[1])

	_, err = svc.ImportLookup(context.Background(), w, ports.LookupCollateralTypes, "purpose.csv")
	require.ErrorIs(t, err, pipeline.ErrMissingColumn)

	_, err = svc.ImportLookup(context.Background(), w, "users", "purpose.csv")
	require.Error(t, err)
}

func TestInputsPaths(t *testing.T) {
	p := Inputs{Collateral: []string{" a.xlsx ", ""}, LoanTerms: []string{"b.xlsx"}, Registry: "  "}.Paths()
	require.Equal(t, []string{"a.xlsx"}, p[pipeline.TableCollateral])
	require.NotContains(t, p, pipeline.TableRegistry)
}
