package logger

const PlayerConnectedMsg = "player connected"
const PlayerDisconnectedMsg = "player disconnected"

const PlayerJoinedRoomMsg = "player joined room"
const PlayerCreatedRoomMsg = "player created room"
const PlayerLeftRoomMsg = "player left room"
const PlayerAlreadySeatedMsg = "join ignored, player already seated"

const GameStartMsg = "room full, game started"
const RoomClosedMsg = "room closed"
const RoomsEvictedMsg = "closed rooms evicted"

const InvalidMessageMsg = "invalid message format"
const SendFailedMsg = "send to player failed"
const EncodeFailedMsg = "encode payload failed"

const ServerStartMsg = "server running"
const ServerStopMsg = "server shutting down"
