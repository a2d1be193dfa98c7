// Package dockerflow serves the operational endpoints expected of services
// deployed on the Dockerflow conventions and logs one summary line per request.
//
//	/__version__      contents of version.json
//	/__heartbeat__    last dependency check results, 200 or 500
//	/__lbheartbeat__  always 200, for load balancers
package dockerflow
