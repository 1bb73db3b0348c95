// Package e2e runs hardware sessions end to end: raw frames in, encoded
// samples out through a Pion PeerConnection.
package e2e

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
)

const (
	trackTimeout   = 5 * time.Second
	connectTimeout = 10 * time.Second
)

// PeerPair is a sender/receiver pair of Pion peers connected over loopback.
type PeerPair struct {
	Sender   *webrtc.PeerConnection
	Receiver *webrtc.PeerConnection

	packets       atomic.Int64
	payloadBytes  atomic.Int64
	trackReceived chan *webrtc.TrackRemote
	connected     chan struct{}
}

// NewPeerPair creates both peers. The receiver counts every RTP packet it
// reads from remote tracks.
func NewPeerPair(t *testing.T) *PeerPair {
	t.Helper()

	sender, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("Failed to create sender PeerConnection: %v", err)
	}
	receiver, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		sender.Close()
		t.Fatalf("Failed to create receiver PeerConnection: %v", err)
	}

	pp := &PeerPair{
		Sender:        sender,
		Receiver:      receiver,
		trackReceived: make(chan *webrtc.TrackRemote, 1),
		connected:     make(chan struct{}),
	}

	receiver.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		t.Logf("Received track: id=%s codec=%s", track.ID(), track.Codec().MimeType)
		select {
		case pp.trackReceived <- track:
		default:
		}
		depacketizer := depacketizerFor(track.Codec().MimeType)
		go func() {
			for {
				pkt, _, err := track.ReadRTP()
				if err != nil {
					return
				}
				pp.packets.Add(1)
				if depacketizer == nil {
					continue
				}
				if payload, err := depacketizer.Unmarshal(pkt.Payload); err == nil {
					pp.payloadBytes.Add(int64(len(payload)))
				}
			}
		}()
	})

	var once atomic.Bool
	sender.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateConnected && once.CompareAndSwap(false, true) {
			close(pp.connected)
		}
	})

	t.Cleanup(pp.Close)
	return pp
}

// Connect runs a full offer/answer exchange with complete ICE gathering and
// waits for the sender to connect.
func (pp *PeerPair) Connect(t *testing.T) {
	t.Helper()

	offer, err := pp.Sender.CreateOffer(nil)
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	gathered := webrtc.GatheringCompletePromise(pp.Sender)
	if err := pp.Sender.SetLocalDescription(offer); err != nil {
		t.Fatalf("SetLocalDescription(offer): %v", err)
	}
	<-gathered

	if err := pp.Receiver.SetRemoteDescription(*pp.Sender.LocalDescription()); err != nil {
		t.Fatalf("SetRemoteDescription(offer): %v", err)
	}
	answer, err := pp.Receiver.CreateAnswer(nil)
	if err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}
	gathered = webrtc.GatheringCompletePromise(pp.Receiver)
	if err := pp.Receiver.SetLocalDescription(answer); err != nil {
		t.Fatalf("SetLocalDescription(answer): %v", err)
	}
	<-gathered

	if err := pp.Sender.SetRemoteDescription(*pp.Receiver.LocalDescription()); err != nil {
		t.Fatalf("SetRemoteDescription(answer): %v", err)
	}

	select {
	case <-pp.connected:
	case <-time.After(connectTimeout):
		t.Fatal("timed out waiting for connection")
	}
}

// WaitForTrack returns the first remote track seen by the receiver.
func (pp *PeerPair) WaitForTrack(t *testing.T) *webrtc.TrackRemote {
	t.Helper()
	select {
	case track := <-pp.trackReceived:
		return track
	case <-time.After(trackTimeout):
		t.Fatal("timed out waiting for remote track")
		return nil
	}
}

// Packets returns the number of RTP packets received so far.
func (pp *PeerPair) Packets() int64 {
	return pp.packets.Load()
}

// PayloadBytes returns the number of depacketized bitstream bytes received.
func (pp *PeerPair) PayloadBytes() int64 {
	return pp.payloadBytes.Load()
}

func depacketizerFor(mimeType string) rtp.Depacketizer {
	switch {
	case strings.EqualFold(mimeType, webrtc.MimeTypeH264):
		return &codecs.H264Packet{}
	case strings.EqualFold(mimeType, webrtc.MimeTypeH265):
		return &codecs.H265Packet{}
	default:
		return nil
	}
}

// Close closes both peers.
func (pp *PeerPair) Close() {
	_ = pp.Sender.Close()
	_ = pp.Receiver.Close()
}
