/*
Package runner ties the pipeline together for one form.

Structure resolves a URL to a form.Structure, serving it from the cache when
fresh and otherwise loading the page, extracting it and caching the result.

Run performs a bulk run: for each of N submissions it generates answers,
submits them through the Sink, verifies the response, and waits a random
delay before the next one. Failed submissions are retried; a run of
consecutive failures trips a circuit breaker and ends the run early.

	r, err := runner.New(runner.Deps{
		Loader:    fetcher,
		Extractor: extractor,
		Cache:     structures,
		Generator: gen,
		Sink:      sink,
	}, runner.DefaultOptions())

	report, err := r.Run(ctx, formURL, 25)
*/
package runner
