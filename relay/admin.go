// Copyright 2025 The relayd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayd/relayd/common"
	"github.com/relayd/relayd/internal/sigs"
	"github.com/relayd/relayd/logger"
)

// setupAdmin registers the optional admin/metrics HTTP server's routes,
// grounded on controller.Controller.setupServer and server/server.go.
// This surface is purely operational: it never touches the cover HTTP
// traffic the relay forwards, only the relay process's own health and
// configuration.
func (r *Relay) setupAdmin() {
	if r.svr == nil {
		return
	}
	r.svr.RegisterGetRoute("/metrics", func(w http.ResponseWriter, req *http.Request) {
		uptime.Set(float64(time.Now().Unix() - common.Started()))
		buildInfo.WithLabelValues(r.buildInfo.Version, r.buildInfo.GitHash, r.buildInfo.Time).Inc()
		promhttp.Handler().ServeHTTP(w, req)
	})
	r.svr.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, req *http.Request) {
		logger.SetLoggerLevel(req.FormValue("level"))
		w.Write([]byte(`{"status": "success"}`))
	})
	r.svr.RegisterPostRoute("/-/reload", func(w http.ResponseWriter, req *http.Request) {
		if err := sigs.SelfReload(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
		}
	})
}
