/*
Package errors implements the error taxonomy of the custody node.

Every error returned by a handler should wrap one of the root errors declared
in this package, or a root error an extension registered with
Register(code, description). The code travels to the client together with the
message, so the client can tell a missing vault from a missing permission
without parsing text.

Wrap an error with context at the point of creation:

	return errors.Wrapf(errors.ErrNotFound, "wallet %d", id)

and test the kind of an error with Is:

	if errors.ErrNotFound.Is(err) { ... }

The innermost Wrap attaches a stacktrace. Format the error with %+v to print
it, %s prints only the messages.
*/
package errors
