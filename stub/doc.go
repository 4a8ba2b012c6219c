/*
	Package stub implements symmetric RPC over any transport that can carry
	text frames in both directions.

	A Stub is bound to one connection. Once bound, it does not care which side
	initiated the connection: both ends register handlers with On and call
	the other end's handlers with Go or Call.

	Each frame is a single JSON envelope:

		{"rpcId": 0, "direction": "request", "eventName": "add", "args": [2, 3]}
		{"rpcId": 0, "direction": "reply", "value": 5}

	Request ids are allocated by the calling stub and echoed back unchanged by
	the responder, so each side keeps its own counter.

	Handlers can reply synchronously by returning a value, or later by calling
	Request.Return from any goroutine. Whichever happens first wins.

	Transports plug in two ways. A Socket exposes a replaceable inbound hook
	and is bound with Attach, which keeps the previous hook for frames that are
	not envelopes. A Receiver pushes inbound frames to a sink and is driven by
	Stub.Serve.
*/
package stub
