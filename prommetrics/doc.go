// Package prommetrics exports alignment engine metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	obs, err := prommetrics.New(reg)
//	eng, err := engine.New(cfg, q, t, p, r, m, engine.WithMetricsObserver(obs))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics
