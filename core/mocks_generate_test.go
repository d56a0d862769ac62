package core

//go:generate mockgen -destination=mocks_test.go -package=$GOPACKAGE . ValueLedger,Target,TargetResolver
