package domain

// RoomName is the client-supplied room key (usually the call's URL path).
// Any string is accepted; clients converge by using the same value.
type RoomName string
