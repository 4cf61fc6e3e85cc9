package logging

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	*zap.SugaredLogger

	name  string
	level zap.AtomicLevel
	cores []zapcore.Core
}

func newImpl(name string, level Level, appenders ...func(zapcore.LevelEnabler) zapcore.Core) *impl {
	atomicLevel := zap.NewAtomicLevelAt(level.AsZap())
	cores := make([]zapcore.Core, 0, len(appenders))
	for _, appender := range appenders {
		cores = append(cores, appender(atomicLevel))
	}

	sugar := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	if name != "" {
		sugar = sugar.Named(name)
	}
	return &impl{SugaredLogger: sugar, name: name, level: atomicLevel, cores: cores}
}

func (imp *impl) Sublogger(subname string) Logger {
	return &impl{
		SugaredLogger: imp.SugaredLogger.Named(subname),
		name:          joinName(imp.name, subname),
		level:         imp.level,
		cores:         imp.cores,
	}
}

func (imp *impl) WithFields(keysAndValues ...interface{}) Logger {
	return &impl{
		SugaredLogger: imp.SugaredLogger.With(keysAndValues...),
		name:          imp.name,
		level:         imp.level,
		cores:         imp.cores,
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	switch imp.level.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.InfoLevel:
		return INFO
	case zapcore.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}

func (imp *impl) Sync() error {
	var errs []error
	for _, core := range imp.cores {
		if err := core.Sync(); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}

func joinName(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
