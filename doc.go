// Package meetcall implements the lifecycle core of a one-to-one audio or
// video call: the ringtone that alerts the user, the per-call state machine
// and the controller that keeps the two in step.
//
// The package never touches the network. A signaling layer feeds it offers
// and remote decisions, a media layer reports when media connects or fails,
// and the user interface issues local commands. The controller answers with
// phase changes, snapshots and an ended notification.
//
// # Getting Started
//
// Build a controller from options, a sound directory and a scheduler:
//
//	opts := meetcall.NewOptions()
//	sched := clock.NewReal()
//	player := opts.NewRingtonePlayer(os.DirFS(opts.SoundsDir), sched, nil)
//
//	ctrl, err := meetcall.NewController(player, sched)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctrl.SetStateCallback(func(snap session.Snapshot) {
//	    fmt.Printf("%s %s\n", snap.Phase, snap.FormattedDuration())
//	})
//
//	// An offer arrived from signaling.
//	err = ctrl.HandleIncoming(session.CallData{
//	    ID:         "abc",
//	    Type:       session.CallTypeVideo,
//	    RemoteName: "Ada",
//	})
//
//	// The user answered, then the media layer connected.
//	ctrl.Accept()
//	ctrl.OnMediaConnected()
//
// # Call Phases
//
// Incoming calls start in ringing-incoming and outgoing calls in
// ringing-outgoing. Either moves to connecting once answered, to connected
// when media flows and finally to ended, which is terminal. The duration
// counter advances once per second only while connected.
//
// An incoming call that is neither accepted nor rejected before the ringtone
// plays MaxRingLoops times ends as missed. If the ringtone cannot be loaded
// the call rings silently, the Observer is told through RingtoneUnavailable,
// and the call ends as missed after SilentRingTimeout.
//
// # Concurrency
//
// All Controller methods are safe for concurrent use. Observer methods and
// the state callback run without the controller lock held, so they may call
// back into the controller. Notifications arrive one at a time in the order
// the changes were applied.
//
// # Configuration
//
// LoadOptions reads an ini file; ConfigureLogging applies its [logging]
// section to logrus, optionally adding a rotating log file.
package meetcall
