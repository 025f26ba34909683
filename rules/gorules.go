//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via ruleguard.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo detects goroutines that pair Add/Done by hand.
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    work()
//	}()
//
// becomes
//
//	wg.Go(func() {
//	    work()
//	})
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`).
		Where(m["wg"].Type.Is("sync.WaitGroup") || m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... })").
		Suggest("$wg.Go(func() { $body })")
}

// StdlibErrors flags errors built with the standard library outside the
// errors package. They carry no component or category and bypass the
// telemetry hooks.
func StdlibErrors(m dsl.Matcher) {
	m.Import("errors")

	m.Match(`errors.New($msg)`).
		Where(m.File().Imports("errors") &&
			!m.File().PkgPath.Matches(`/internal/(errors|observability|logger)$`)).
		Report("use the internal errors package: errors.Newf($msg).Component(...).Category(...).Build()")
}

// StdLog flags the standard logger.
func StdLog(m dsl.Matcher) {
	m.Import("log")

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `log.Fatalf($*_)`, `log.Fatal($*_)`).
		Report("use logger.Global().Module(...) instead of the standard logger")
}

// OutcomeConversion flags unchecked conversions of user input to outcomes.
func OutcomeConversion(m dsl.Matcher) {
	m.Match(`wheel.Outcome($x)`).
		Where(m["x"].Type.Is("int") && m["x"].Text.Matches(`^(n|num|number|raw|v)$`) &&
			!m.File().PkgPath.Matches(`/internal/wheel$`)).
		Report("validate $x with wheel.CheckOutcome before converting")
}

// ContextTODO flags placeholder contexts in non-test code.
func ContextTODO(m dsl.Matcher) {
	m.Match(`context.TODO()`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report("pass the caller's context instead of context.TODO()")
}
