package main

import (
	"fmt"
	"os"

	"github.com/aunum/log"
	"github.com/samuelfneumann/rainbow/agent"
	"github.com/samuelfneumann/rainbow/experiment"
)

func main() {
	var seed uint64 = 192382

	// Read the experiment from the file given as the first argument, or
	// train a plain DQN agent on FrozenLake
	c := experiment.DefaultConfig()
	if len(os.Args) > 1 {
		var err error
		c, err = experiment.LoadConfig(os.Args[1])
		if err != nil {
			log.Fatalf("could not read configuration: %v", err)
		}
	}

	if err := run(c, seed); err != nil {
		log.Fatalf("%v", err)
	}
}

// run trains and then evaluates the agent of the experiment c. The
// environment is closed before run returns.
func run(c experiment.Config, seed uint64) error {
	exp, env, a, err := c.CreateExp(seed, os.Stdout)
	if err != nil {
		return fmt.Errorf("could not create experiment: %v", err)
	}
	defer env.Close()
	log.Infof("training %v agent on %v for %v episodes", c.AgentConf.Type,
		c.EnvConf.Environment, c.Episodes)

	if err := exp.Run(); err != nil {
		return fmt.Errorf("could not run experiment: %v", err)
	}
	if err := exp.Save(); err != nil {
		return fmt.Errorf("could not save experiment data: %v", err)
	}

	saver, ok := a.(agent.Saver)
	if !ok {
		return fmt.Errorf("agent of type %T cannot be evaluated", a)
	}
	if _, err := experiment.Evaluate(env, saver, c.ModelPath(),
		os.Stdout); err != nil {
		return fmt.Errorf("could not evaluate agent: %v", err)
	}
	return nil
}
