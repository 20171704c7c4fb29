// Package agent is the Go client SDK for game servers licensed through
// GhostGuard. A deployed agent verifies its license once at boot, then
// loops: heartbeat with the player roster, poll the action mailbox, and
// push diagnostic log lines.
//
// The client computes the machine's hardware fingerprint automatically;
// on a fresh license the first verification binds it, and every later
// verification must present the same one.
//
// # Usage
//
//	client, err := agent.New(agent.Config{
//		BaseURL:    "https://ghostguard.example.com",
//		LicenseKey: "GG-AAAAA-BBBBB-CCCCC-DD",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Verify(ctx)
//	if err != nil || !result.Valid {
//		// Fail closed: no decision means no authorization.
//		os.Exit(1)
//	}
//
//	for range time.Tick(15 * time.Second) {
//		client.Heartbeat(ctx, agent.State{
//			Players: roster(),
//			Version: "1.4.2",
//			Uptime:  uptimeSeconds(),
//		})
//		actions, _ := client.PollActions(ctx)
//		for _, action := range actions {
//			apply(action)
//		}
//	}
//
// Verification rejections (expired, suspended, hardware mismatch) come
// back as a VerifyResult with Valid false and a reason code, not as
// errors. Errors mean the outcome is unknown (transport failure or a
// server fault) and callers must treat an unknown outcome as invalid.
package agent
