package registry

import (
	"errors"
	"fmt"
	"log"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/net/context"

	"github.com/offloadml/offloadml/utils"
)

const artifactBaseDirectory = "offloadml/artifacts"

var ErrNoPublishedVersion = errors.New("no artifact version announced on etcd")

func currentVersionKey() string {
	return fmt.Sprintf("%s/current", artifactBaseDirectory)
}

func versionKey(version string) string {
	return fmt.Sprintf("%s/%s", artifactBaseDirectory, version)
}

// PublishArtifactVersion announces a freshly trained artifact-set version to
// the cluster, so serving nodes can discover and reload it.
func PublishArtifactVersion(version string) error {
	cli, err := utils.GetEtcdClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trainedBy := "unknown"
	if ip, err := utils.GetOutboundIp(); err == nil {
		trainedBy = ip.String()
	}

	announcement := fmt.Sprintf("%s %s", trainedBy, time.Now().UTC().Format(time.RFC3339))
	if _, err := cli.Put(ctx, versionKey(version), announcement); err != nil {
		return fmt.Errorf("could not announce artifact version: %v", err)
	}
	if _, err := cli.Put(ctx, currentVersionKey(), version); err != nil {
		return fmt.Errorf("could not update current artifact version: %v", err)
	}

	log.Printf("Announced artifact set %s on etcd\n", version)
	return nil
}

// CurrentArtifactVersion reads the version last announced to the cluster.
func CurrentArtifactVersion() (string, error) {
	cli, err := utils.GetEtcdClient()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := cli.Get(ctx, currentVersionKey(), clientv3.WithLimit(1))
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", ErrNoPublishedVersion
	}
	return string(resp.Kvs[0].Value), nil
}
