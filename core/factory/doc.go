// Package factory instantiates pluggable modules (metrics sinks, prediction
// stores) from configuration. A module is described by a type name and a
// raw settings map; the registered factory decodes the map with Decode and
// returns the concrete implementation.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInflux(c.URL), nil
//	})
package factory
