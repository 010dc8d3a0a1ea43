// Package prof wraps runtime/pprof for the usbd tools.
//
// It is compiled in with the profile build tag:
//
//	go build -tags profile
//
// Without the tag every function is a no-op and [Do] calls its function
// directly, so profiling hooks can stay in place at no cost.
//
// # HTTP
//
// [Handle] registers the net/http/pprof handlers on a caller-supplied mux,
// typically the one already serving metrics:
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", promhttp.Handler())
//	prof.Handle(mux)
//
// # Bus stages
//
// [Do] labels CPU samples with the bus stage that produced them:
//
//	err := prof.Do(ctx, "configure", func(ctx context.Context) error {
//	    return configure(ctx)
//	})
//
// Filter a profile on the label with go tool pprof -tagfocus usbd_stage=configure.
package prof
