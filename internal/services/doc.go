// Package services defines the [Service] interface for the document chat
// backend and implements it in [BackendService].
//
// # Transport
//
// One HTTP client serves every endpoint. When the session controller attaches
// a token via [BackendService.SetToken], the client is replaced with an
// [oauth2]-built client whose transport injects the Authorization header into
// every request; [BackendService.ClearToken] restores the bare client. No
// other component touches the token.
//
// # Error Handling
//
// Non-2xx responses are mapped to typed errors from the shared package,
// carrying the backend's detail message when one is present:
//   - [shared.ErrNotAuthenticated] : 401, after invoking the unauthorized hook
//   - [shared.ErrAPIRequest] : any other failure status
//
// Network-level failures are returned as plain wrapped errors. The transport
// imposes no timeout or retry of its own; callers own cancellation through
// the request context.
//
// # Uploads
//
// [BackendService.Upload] streams a multipart body through a progressReader,
// giving the upload pipeline genuine transfer offsets instead of a simulated
// ramp wherever the body length is known.
package services
