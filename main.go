package main

import (
	"github.com/shinyvision/vimfony-text/internal/lspsync"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	commonlog.Configure(1, nil)

	s := lspsync.NewServer()
	s.Run()
}
