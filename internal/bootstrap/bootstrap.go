// Package bootstrap assembles the pipeline from configuration. Each
// port has an AWS backend and a self-hosted one; the server and the CLI
// share this wiring.
package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/aws/aws-sdk-go/service/ssm"

	awsadapter "plugfolio-deployer/internal/adapters/aws"
	"plugfolio-deployer/internal/adapters/git"
	"plugfolio-deployer/internal/adapters/ssh"
	"plugfolio-deployer/internal/application/pipeline"
	"plugfolio-deployer/internal/application/trigger"
	"plugfolio-deployer/internal/config"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/event"
	"plugfolio-deployer/internal/logger"
	"plugfolio-deployer/internal/metrics"
	"plugfolio-deployer/internal/storage/snapshot"
	"plugfolio-deployer/internal/storage/sqlite"
)

type App struct {
	Config *config.Config
	Log    logger.Logger
	Bus    *event.Bus

	Params   domain.ParameterStore
	DNS      domain.DNSProvider
	Channel  domain.CommandChannel
	Registry *pipeline.Registry
	Runner   *pipeline.Runner
	Starter  domain.ExecutionStarter
	Trigger  *trigger.Service

	Runs    *snapshot.RunStore
	Metrics *metrics.Recorder

	db    *sql.DB
	sess  *session.Session
	local *pipeline.LocalStarter
}

func New(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Log:    log,
		Bus:    event.New(),
		Runs:   snapshot.NewRunStore(),
	}

	if err := a.wirePorts(); err != nil {
		a.Close()
		return nil, err
	}

	cloner := git.NewManager(log).WithBranch(cfg.CloneBranch)
	if !cloner.IsGitInstalled() {
		a.Close()
		return nil, ErrGitNotInstalled
	}

	a.Registry = NewRegistry(cfg, a.Params, a.DNS, a.Channel, cloner, log)
	a.Runner = pipeline.NewRunner(a.Registry, a.Bus, log)

	if err := a.wireStarter(); err != nil {
		a.Close()
		return nil, err
	}

	a.Trigger = trigger.NewService(a.Params, a.Starter, cfg.ParameterNamespace, cfg.RemoteTimeout, a.Bus, log)

	a.Metrics = metrics.NewRecorder(a.Runs, log)
	a.Metrics.Register(a.Bus)

	return a, nil
}

// NewRegistry lists the stages in execution order.
func NewRegistry(cfg *config.Config, params domain.ParameterStore, dns domain.DNSProvider, channel domain.CommandChannel, cloner domain.RepositoryCloner, log logger.Logger) *pipeline.Registry {
	return pipeline.NewRegistry(
		pipeline.NewConfigResolver(params, cfg.ParameterNamespace, cfg.RemoteTimeout, log),
		pipeline.NewBuildOutputExtractor(cfg.BuildOutputKeys, log),
		pipeline.NewManifestReader(cloner, cfg.ManifestFile, cfg.DefaultInternalPort, cfg.CloneTimeout, log),
		pipeline.NewSubdomainProvisioner(dns, cfg.HostedZoneID, cfg.DeployHostIP, cfg.RemoteTimeout, log),
		pipeline.NewCommandDispatcher(channel, cfg.TargetInstanceIDs, cfg.DocumentName, cfg.BucketName, cfg.RemoteTimeout, log),
		pipeline.NewHealthChecker(cfg.HealthTimeout, log),
		pipeline.NewRollbackRecorder(params, cfg.ParameterNamespace, cfg.RemoteTimeout, log),
	)
}

func (a *App) wirePorts() error {
	cfg := a.Config

	switch cfg.ParameterBackend {
	case config.BackendSSM:
		sess, err := a.session()
		if err != nil {
			return err
		}
		a.Params = awsadapter.NewParameterStore(ssm.New(sess))
	case config.BackendSQLite:
		db, err := a.sqlite()
		if err != nil {
			return err
		}
		a.Params = sqlite.NewParameterRepository(db)
	default:
		return unknownBackend("PARAMETER_BACKEND", cfg.ParameterBackend)
	}

	switch cfg.DNSBackend {
	case config.BackendRoute53:
		sess, err := a.session()
		if err != nil {
			return err
		}
		a.DNS = awsadapter.NewDNSProvider(route53.New(sess))
	case config.BackendSQLite:
		db, err := a.sqlite()
		if err != nil {
			return err
		}
		a.DNS = sqlite.NewRecordRepository(db)
	default:
		return unknownBackend("DNS_BACKEND", cfg.DNSBackend)
	}

	switch cfg.DispatchBackend {
	case config.BackendSSM:
		sess, err := a.session()
		if err != nil {
			return err
		}
		a.Channel = awsadapter.NewCommandChannel(ssm.New(sess))
	case config.BackendSSH:
		ch, err := ssh.NewCommandChannel(cfg.SSHUser, cfg.SSHKeyPath, cfg.SSHKnownHosts, cfg.SSHScriptDir)
		if err != nil {
			return fmt.Errorf("ssh dispatch: %w", err)
		}
		a.Channel = ch
	default:
		return unknownBackend("DISPATCH_BACKEND", cfg.DispatchBackend)
	}

	return nil
}

func (a *App) wireStarter() error {
	cfg := a.Config

	switch cfg.ExecutionBackend {
	case config.BackendSFN:
		if cfg.StateMachineARN == "" {
			return &domain.ConfigurationMissingError{Key: "STATE_MACHINE_ARN"}
		}
		sess, err := a.session()
		if err != nil {
			return err
		}
		a.Starter = awsadapter.NewExecutionStarter(sfn.New(sess), cfg.StateMachineARN)
	case config.BackendLocal:
		a.local = pipeline.NewLocalStarter(a.Runner, cfg.ExecutionTimeout, a.Log)
		a.Starter = a.local
	default:
		return unknownBackend("EXECUTION_BACKEND", cfg.ExecutionBackend)
	}

	return nil
}

func (a *App) session() (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}

	sess, err := awsadapter.NewSession(a.Config.AWSRegion)
	if err != nil {
		return nil, err
	}
	a.sess = sess
	return sess, nil
}

func (a *App) sqlite() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	db, err := sqlite.NewSqliteDB(a.Config.SQLitePath, a.Log)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// Records lists the self-hosted DNS records, or nil when DNS is served
// by Route 53.
func (a *App) Records() *sqlite.RecordRepository {
	repo, _ := a.DNS.(*sqlite.RecordRepository)
	return repo
}

// Close waits for in-process executions and releases the database.
func (a *App) Close() error {
	if a.local != nil {
		a.local.Wait()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

var (
	ErrUnknownBackend  = errors.New("unknown backend")
	ErrGitNotInstalled = errors.New("git not found in PATH; read-manifest cannot clone")
)

func unknownBackend(key, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrUnknownBackend, key, value)
}
