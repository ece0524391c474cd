package server

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/teranos/QVIZ/internal/util"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
	"github.com/teranos/QVIZ/version"
)

// Broadcast request kinds handled by the worker
const (
	broadcastScene = "scene" // scene frame to one client (clientID set) or all
	broadcastMsg   = "msg"   // generic message to one client or all
	broadcastClose = "close" // close a departing client's channels
)

// broadcastRequest is one unit of work for the broadcast worker. All client
// channel sends funnel through it so no other goroutine ever races a close.
type broadcastRequest struct {
	reqType  string
	scene    *render.Scene
	msg      interface{}
	client   *Client // for close requests
	clientID string  // "" = all clients
}

// runBroadcastWorker owns all sends to client channels. Scene frames that
// cannot be queued mark the client slow and drop it; generic messages are
// skipped silently since the next status tick repeats them.
func (s *QVIZServer) runBroadcastWorker() {
	s.logger.Debugw("Broadcast worker started")

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Broadcast worker stopping due to context cancellation")
			return
		case req := <-s.broadcastReq:
			switch req.reqType {
			case broadcastScene:
				s.deliverScene(req)
			case broadcastMsg:
				s.deliverMessage(req)
			case broadcastClose:
				req.client.teardown()
			}
		}
	}
}

// deliverScene queues a scene frame on the targeted clients' send channels
func (s *QVIZServer) deliverScene(req *broadcastRequest) {
	for _, client := range s.targetClients(req.clientID) {
		select {
		case client.sendScene <- req.scene:
		default:
			s.broadcastDrops.Add(1)
			s.removeSlowClient(client)
		}
	}
}

// deliverMessage queues a generic message on the targeted clients
func (s *QVIZServer) deliverMessage(req *broadcastRequest) {
	for _, client := range s.targetClients(req.clientID) {
		select {
		case client.sendMsg <- req.msg:
		default:
			s.broadcastDrops.Add(1)
		}
	}
}

// targetClients snapshots the recipients for a broadcast request
func (s *QVIZServer) targetClients(clientID string) []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		if clientID == "" || client.id == clientID {
			clients = append(clients, client)
		}
	}
	return clients
}

// queueScene hands a scene frame to the broadcast worker without blocking
// the caller. Called from session tick and interaction goroutines.
func (s *QVIZServer) queueScene(clientID string, scene *render.Scene) {
	req := &broadcastRequest{reqType: broadcastScene, scene: scene, clientID: clientID}
	select {
	case s.broadcastReq <- req:
	case <-s.ctx.Done():
	default:
		s.broadcastDrops.Add(1)
		s.logger.Debugw("Broadcast request queue full, dropping scene frame",
			logger.FieldClientID, clientID,
		)
	}
}

// queueMessage hands a generic message to the broadcast worker
func (s *QVIZServer) queueMessage(clientID string, msg interface{}) {
	req := &broadcastRequest{reqType: broadcastMsg, msg: msg, clientID: clientID}
	select {
	case s.broadcastReq <- req:
	case <-s.ctx.Done():
	default:
		s.broadcastDrops.Add(1)
	}
}

// buildStatus assembles the current status snapshot
func (s *QVIZServer) buildStatus() StatusMessage {
	return StatusMessage{
		Type:          "status",
		Version:       version.Get().Version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Clients:       s.ClientCount(),
		ServerState:   stateString(s.getState()),
		MemoryMB:      processMemoryMB(),
		Timestamp:     time.Now().Unix(),
	}
}

// processMemoryMB reports the resident set size, or 0 when unavailable
func processMemoryMB() float64 {
	proc, err := process.NewProcess(int32(currentPID()))
	if err != nil {
		return 0
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil || memInfo == nil {
		return 0
	}
	return float64(memInfo.RSS) / (1024 * 1024)
}

// startStatusBroadcaster periodically pushes status to connected clients,
// skipping ticks where nothing meaningful changed
func (s *QVIZServer) startStatusBroadcaster() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Debugw("Status broadcaster stopping due to context cancellation")
				return
			case <-ticker.C:
				if s.ClientCount() == 0 {
					continue
				}

				status := s.buildStatus()

				s.mu.Lock()
				if !s.statusHasChangedLocked(status) {
					s.mu.Unlock()
					continue
				}
				s.lastStatus = &cachedStatus{
					clients:  status.Clients,
					state:    s.getState(),
					memoryMB: status.MemoryMB,
				}
				s.mu.Unlock()

				s.queueMessage("", status)
			}
		}
	}()
}

// statusHasChangedLocked reports whether status differs meaningfully from
// the last broadcast. Requires s.mu held.
func (s *QVIZServer) statusHasChangedLocked(status StatusMessage) bool {
	if s.lastStatus == nil {
		return true
	}
	return s.lastStatus.clients != status.Clients ||
		stateString(s.lastStatus.state) != status.ServerState ||
		util.AbsFloat64(s.lastStatus.memoryMB-status.MemoryMB) > 1.0
}
