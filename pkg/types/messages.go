package types

// Server -> Client (websocket)
// new_pixel:
//   type: "new_pixel"
//   data: { id, identity, team, x, y, color, placed_at }
//
// widget_update:
//   type: "widget_update"
//   data: [ { team, pixel_count } ]

// Client -> Server (websocket)
// Anything the client sends on the socket is logged and ignored; the
// placement path is HTTP only.
