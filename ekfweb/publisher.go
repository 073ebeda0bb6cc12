package ekfweb

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/westphae/windfusion/ekf"
)

// Publisher sends drag fusion snapshots to a telemetry room.
type Publisher struct {
	// Monitor, if set, contributes its verdict to each snapshot.
	Monitor *ekf.InnovationMonitor

	host string
	data *DragData
	c    *websocket.Conn
	log  *zap.SugaredLogger
}

// NewPublisher connects to the room served at host, e.g. "localhost:8000".
func NewPublisher(host string, log *zap.SugaredLogger) (p *Publisher, err error) {
	p = &Publisher{
		host: host,
		data: new(DragData),
		log:  log.Named("publisher"),
	}
	if err = p.connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", host, err)
	}
	return p, nil
}

func (p *Publisher) connect() error {
	u := url.URL{Scheme: "ws", Host: p.host, Path: Path}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	p.c = c
	return nil
}

func (p *Publisher) update(s *ekf.State, d *ekf.DragSample, diag *ekf.DragDiagnostics) {
	p.data.T = float64(time.Now().UnixNano()/1000) / 1e6

	if s != nil {
		roll, pitch, heading := s.RollPitchYaw()
		p.data.Roll = roll / ekf.Deg
		p.data.Pitch = pitch / ekf.Deg
		p.data.Heading = heading / ekf.Deg
		p.data.VN = s.VN
		p.data.VE = s.VE
		p.data.VD = s.VD
		p.data.WN = s.WN
		p.data.WE = s.WE
		if s.P != nil {
			p.data.DVN = math.Sqrt(math.Max(s.P.Get(ekf.IdxVN, ekf.IdxVN), 0))
			p.data.DVE = math.Sqrt(math.Max(s.P.Get(ekf.IdxVE, ekf.IdxVE), 0))
			p.data.DWN, p.data.DWE = s.WindUncertainty()
		}
	} else {
		p.log.Warn("state is nil, not updating data")
	}

	if d != nil {
		p.data.AX = d.AccelX
		p.data.AY = d.AccelY
		p.data.TD = d.T
	}

	if diag != nil {
		p.data.InnovX, p.data.InnovY = diag.Innov[0], diag.Innov[1]
		p.data.InnovVarX, p.data.InnovVarY = diag.InnovVar[0], diag.InnovVar[1]
		p.data.TestRatioX, p.data.TestRatioY = diag.TestRatio[0], diag.TestRatio[1]
		p.data.OutcomeX, p.data.OutcomeY = diag.Outcome[0].String(), diag.Outcome[1].String()
	}

	if p.Monitor != nil {
		p.data.Suspect = p.Monitor.Suspect()
		p.data.RejectionX = p.Monitor.RejectionFraction(0)
		p.data.RejectionY = p.Monitor.RejectionFraction(1)
	}
}

// Send publishes a snapshot of the state, the drag sample and its fusion
// diagnostics. Any argument may be nil, in which case its fields keep their
// previous values. On a write error the message is dropped and the
// connection re-established; while the room is unreachable every Send
// retries the connection and returns an error.
func (p *Publisher) Send(s *ekf.State, d *ekf.DragSample, diag *ekf.DragDiagnostics) error {
	p.update(s, d, diag)

	msg, err := json.Marshal(p.data)
	if err != nil {
		p.log.Errorw("error marshalling json data", "error", err, "data", p.data)
		return err
	}
	if p.c == nil {
		if err := p.connect(); err != nil {
			return fmt.Errorf("not connected: %w", err)
		}
		p.log.Info("reconnected")
	}
	if err := p.c.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Warnw("error writing to websocket, reconnecting", "error", err)
		p.c.Close()
		p.c = nil
		if err2 := p.connect(); err2 != nil {
			return fmt.Errorf("%v: reconnect: %w", err, err2)
		}
		return err
	}
	return nil
}

// Close tells the room this publisher is leaving and closes the connection.
func (p *Publisher) Close() error {
	if p.c == nil {
		return nil
	}
	defer func() { p.c = nil }()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := p.c.WriteMessage(websocket.CloseMessage, msg); err != nil {
		p.c.Close()
		return fmt.Errorf("closing websocket: %w", err)
	}
	return p.c.Close()
}
