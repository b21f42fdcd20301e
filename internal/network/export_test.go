package network

var (
	SendBufferSize    = sendBufferSize
	ReceiveBufferSize = receiveBufferSize
)
