// Command auditcli runs one collateral audit over local files and writes the
// result workbook next to them, without any backing service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"loan_audit/internal/adapters/opener"
	"loan_audit/internal/adapters/storage"
	"loan_audit/internal/services/auditor"
	"loan_audit/internal/services/auditor/pipeline"
)

type options struct {
	branch, region, date string
	rules, out, name     string
	root                 string
	timeout              time.Duration
	parallel             int
	collateral           string
	loanTerms            string
	in                   auditor.Inputs
}

func newFlags(o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("auditcli", flag.ExitOnError)
	fs.StringVar(&o.branch, "branch", "", "branch code to audit (required)")
	fs.StringVar(&o.region, "region", "", "audited province; collateral registered outside it is flagged")
	fs.StringVar(&o.date, "date", "", "assessment date, YYYY-MM-DD (default 2025-03-31)")
	fs.StringVar(&o.rules, "rules", "", "YAML file overriding the audit thresholds")
	fs.StringVar(&o.out, "out", ".", "directory the workbook is written to")
	fs.StringVar(&o.name, "name", "", "workbook file name")
	fs.StringVar(&o.root, "root", "", "directory relative input paths are resolved against")
	fs.DurationVar(&o.timeout, "timeout", 15*time.Minute, "overall run timeout")
	fs.IntVar(&o.parallel, "parallel", 4, "input files read at once")

	fs.StringVar(&o.collateral, "collateral", "", "collateral ledger files, comma separated (required)")
	fs.StringVar(&o.loanTerms, "loan-terms", "", "loan terms ledger files, comma separated (required)")
	fs.StringVar(&o.in.CollateralTypes, "collateral-types", "", "collateral type code map")
	fs.StringVar(&o.in.PurposeGroups, "purpose-groups", "", "loan purpose group map")
	fs.StringVar(&o.in.Registry, "registry", "", "collateral registry (C01/C02/C19) used for the off-region check")
	fs.StringVar(&o.in.CashDisbursements, "cash", "", "cash disbursement listing")
	fs.StringVar(&o.in.Settlements, "settlements", "", "loan settlement listing")
	fs.StringVar(&o.in.Disbursements, "disbursements", "", "loan disbursement listing")
	fs.StringVar(&o.in.LatePayments, "late", "", "late payment listing")
	return fs
}

// request turns parsed flags into an audit request.
func (o *options) request() (auditor.Request, error) {
	in := o.in
	in.Collateral = splitList(o.collateral)
	in.LoanTerms = splitList(o.loanTerms)

	req := auditor.Request{
		Branch:        o.branch,
		AuditedRegion: o.region,
		Inputs:        in,
		OutputName:    o.name,
	}
	if o.date != "" {
		d, err := time.Parse("2006-01-02", o.date)
		if err != nil {
			return req, fmt.Errorf("-date: %w", err)
		}
		req.AssessmentDate = d
	}
	return req, req.Validate()
}

func main() {
	var o options
	fs := newFlags(&o)
	_ = fs.Parse(os.Args[1:])

	req, err := o.request()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	r, err := pipeline.LoadRules(o.rules)
	if err != nil {
		log.Fatalf("rules: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	local := opener.NewLocalOpener(o.root)
	svc := auditor.NewService(opener.NewCompoundOpener(opener.NewHTTPOpener(&http.Client{Timeout: o.timeout}), nil, local, ""), storage.NewLocalStore(o.out), nil, nil, r)
	svc.Parallel = o.parallel

	res, err := svc.Run(ctx, req)
	if err != nil {
		log.Fatalf("audit failed: %v", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("customers=%d output=%s took=%s\n", res.Customers, res.Output, res.Duration.Round(time.Millisecond))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
