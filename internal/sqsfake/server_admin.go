package sqsfake

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/carqueue/carqueue/internal/httputil"
)

type QueueInfo struct {
	QueueURL  string
	QueueArn  string
	QueueName string
	Created   time.Time
	Stats     QueueStats
}

func newQueueInfo(q *Queue) QueueInfo {
	return QueueInfo{
		QueueURL:  q.URL,
		QueueArn:  q.ARN,
		QueueName: q.Name,
		Created:   q.Created(),
		Stats:     q.Stats(),
	}
}

func (s *Server) registerAdmin() {
	s.router.GET("/admin/queues", s.adminGetQueues)
	s.router.GET("/admin/queues/:queue_name", s.adminGetQueue)
}

func (s *Server) adminGetQueues(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	output := apply(slices.Collect(s.queues.EachQueue()), newQueueInfo)
	writeAdminJSON(w, output)
}

func (s *Server) adminGetQueue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	queue, ok := s.queues.GetQueueByName(ps.ByName("queue_name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeAdminJSON(w, newQueueInfo(queue))
}

func writeAdminJSON(w http.ResponseWriter, v any) {
	w.Header().Set(httputil.HeaderContentType, httputil.ContentTypeApplicationJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
