/*
Package errors implements the coded errors used across the vault.

The idea is to reuse as many errors from this package as possible and
define custom package errors only when absolutely necessary. Each engine
package that needs a domain specific error registers it with a unique
code using Register(code, description).

Every error created during runtime should wrap one of the registered
root errors, via Wrap or Wrapf. The root can later be tested for with
its Is method, regardless of how many times the instance was wrapped.

There is also support for stacktraces. Ensure you create the error using
errors.Wrap(err, "...") at the point of creation to attach a stacktrace.
If you wrap multiple times, only the first wrap records the stacktrace.

Once you have an error, you can use fmt.Printf/Sprintf to get more context
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
