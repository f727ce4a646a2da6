// Package toast provides feedback notifications for folio clients.
//
// Toasts are not part of any store's state. They are dispatched as custom
// events through a dom.Emitter, which records them for the transport to
// deliver over the client's websocket.
//
// # Client-Side Handler
//
// The client-side handler is user-defined, allowing integration with
// any toast library:
//
//	window.addEventListener("folio:toast", (e) => {
//	    const { level, message, title, id } = e.detail;
//	    showToast(level, message);
//	});
//
// # Server-Side Usage
//
//	res := app.Auth.Login(ctx, identifier, password, remember)
//	toast.Result(app.Document, res.Success, res.Message)
//
// With title:
//
//	toast.WithTitle(doc, toast.TypeSuccess, "Settings", "Your changes have been saved.")
package toast
