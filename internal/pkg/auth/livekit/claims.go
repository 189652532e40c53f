/*
Package livekit mints and parses LiveKit access tokens.

A token is an HS256 JWT signed with the API secret and issued under the API key.
The subject is the participant identity and the "video" claim carries the room grant,
matching the layout LiveKit servers validate.
*/
package livekit

import "github.com/golang-jwt/jwt/v5"

// VideoGrant is the room-scoped capability set carried in the "video" claim.
// Capability flags are pointers because LiveKit distinguishes "unset" from "false".
type VideoGrant struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

// Claims is the full claim set of a LiveKit access token.
type Claims struct {
	jwt.RegisteredClaims

	// Name is the display name shown to other participants.
	Name string `json:"name,omitempty"`

	// Video is the room grant.
	Video *VideoGrant `json:"video,omitempty"`
}

// Identity returns the participant identity, which LiveKit reads from the subject.
func (c *Claims) Identity() string {
	return c.Subject
}

// fullRoomGrant returns the grant given to every verified caller: join the room,
// publish and subscribe to media, and publish data messages.
func fullRoomGrant(room string) *VideoGrant {
	allow := true
	return &VideoGrant{
		Room:           room,
		RoomJoin:       true,
		CanPublish:     &allow,
		CanSubscribe:   &allow,
		CanPublishData: &allow,
	}
}
